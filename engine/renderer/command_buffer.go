package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

type commandBufferImpl struct {
	mu          sync.Mutex
	encoder     *wgpu.CommandEncoder
	queue       *wgpu.Queue
	completions []func()
	committed   bool
}

var _ CommandBuffer = &commandBufferImpl{}

func (c *commandBufferImpl) Encoder() *wgpu.CommandEncoder {
	return c.encoder
}

func (c *commandBufferImpl) OnCompleted(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completions = append(c.completions, fn)
}

func (c *commandBufferImpl) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed {
		return ErrAlreadyCommitted
	}
	c.committed = true
	defer c.encoder.Release()

	commandBuffer, err := c.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command buffer: %w", err)
	}
	defer commandBuffer.Release()

	c.queue.Submit(commandBuffer)

	completions := c.completions
	c.completions = nil
	// work done covers everything submitted so far, including this buffer
	c.queue.OnSubmittedWorkDone(func(wgpu.QueueWorkDoneStatus) {
		for _, fn := range completions {
			fn()
		}
	})
	return nil
}
