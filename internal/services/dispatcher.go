package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Task удаленная операция; отмены нет, ошибки задача обрабатывает сама
type Task func(ctx context.Context)

// Dispatcher выполняет задачи в фоне. Задачи с одним ключом (одна сущность)
// выполняются строго в порядке отправки, с разными ключами независимо.
type Dispatcher struct {
	mu       sync.Mutex
	queues   map[string][]Task
	inflight int
	idle     chan struct{}
	logger   *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		queues: make(map[string][]Task),
		logger: logger,
	}
}

// Submit ставит задачу в очередь ключа и сразу возвращает управление
func (d *Dispatcher) Submit(key string, task Task) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.inflight++
	if d.inflight == 1 {
		d.idle = make(chan struct{})
	}
	if queue, running := d.queues[key]; running {
		d.queues[key] = append(queue, task)
		return
	}
	d.queues[key] = []Task{task}
	go d.drain(key)
}

// drain выполняемая задача остается в голове очереди до завершения,
// ключ удаляется до того, как задача считается выполненной
func (d *Dispatcher) drain(key string) {
	for {
		d.mu.Lock()
		task := d.queues[key][0]
		d.mu.Unlock()

		d.run(key, task)

		d.mu.Lock()
		rest := d.queues[key][1:]
		if len(rest) == 0 {
			delete(d.queues, key)
		} else {
			d.queues[key] = rest
		}
		d.inflight--
		if d.inflight == 0 {
			close(d.idle)
		}
		d.mu.Unlock()

		if len(rest) == 0 {
			return
		}
	}
}

func (d *Dispatcher) run(key string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("❌ Паника в фоновой задаче",
				zap.String("key", key),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	task(context.Background())
}

// Pending число ключей с незавершенными задачами
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Wait ждет, пока не останется незавершенных задач
func (d *Dispatcher) Wait() {
	_ = d.Flush(context.Background())
}

// Flush как Wait, но не дольше ctx. Задачи, отправленные во время ожидания,
// тоже дожидаются.
func (d *Dispatcher) Flush(ctx context.Context) error {
	for {
		d.mu.Lock()
		if d.inflight == 0 {
			d.mu.Unlock()
			return nil
		}
		idle := d.idle
		d.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
