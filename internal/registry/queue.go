package registry

import (
	"container/list"
)

// frameTask is one raw frame awaiting keypoint extraction for a session.
type frameTask struct {
	sessionID string
	image     []byte
}

// frameQueue is an unbounded in-memory FIFO decoupling frame producers from
// the extraction worker. Exactly one receiver drains each queue so frames
// reach the session window in arrival order.
type frameQueue struct {
	queue *list.List
	send  chan frameTask
	recv  chan frameTask
}

func newFrameQueue() *frameQueue {
	return &frameQueue{
		queue: list.New(),
		send:  make(chan frameTask, 1),
		recv:  make(chan frameTask, 1),
	}
}

func (q *frameQueue) Send(t frameTask) {
	q.send <- t
}

func (q *frameQueue) Receive() <-chan frameTask {
	return q.recv
}

func (q *frameQueue) Len() int {
	return q.queue.Len()
}

func (q *frameQueue) Queue() *list.List {
	return q.queue
}

func (q *frameQueue) Loop() {
	for {
		front := q.queue.Front()
		if front != nil {
			select {
			case q.recv <- front.Value.(frameTask):
				q.queue.Remove(front)
			case task, ok := <-q.send:
				if ok {
					q.queue.PushBack(task)
				} else {
					q.send = nil
				}
			}
			continue
		}

		if q.send == nil {
			close(q.recv)
			return
		}
		task, ok := <-q.send
		if !ok {
			return
		}
		q.queue.PushBack(task)
	}
}
