package auth

import (
	"sync"
)

// listeners список подписчиков; каждый Subscribe возвращает свой unsubscribe
type listeners[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

func (l *listeners[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, subscription[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *listeners[T]) remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.subs[:0:0]
	for _, s := range l.subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	l.subs = out
}

// notify вызывает подписчиков синхронно в порядке регистрации
func (l *listeners[T]) notify(value T) {
	l.mu.Lock()
	subs := append([]subscription[T](nil), l.subs...)
	l.mu.Unlock()

	for _, s := range subs {
		s.fn(value)
	}
}

func (l *listeners[T]) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}
