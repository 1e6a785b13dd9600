package executor

import (
	"io"
	"os"
	"sync"
	"time"
)

// outputCapture owns the stdout and stderr pipes of one process. The write ends
// go to the child; the read ends are copied into the capped buffers.
type outputCapture struct {
	stdoutR, stdoutW *os.File
	stderrR, stderrW *os.File
	stdout, stderr   io.Writer
	wg               sync.WaitGroup
}

func newOutputCapture(stdout, stderr io.Writer) (*outputCapture, error) {
	c := &outputCapture{stdout: stdout, stderr: stderr}
	var err error
	if c.stdoutR, c.stdoutW, err = os.Pipe(); err != nil {
		return nil, err
	}
	if c.stderrR, c.stderrW, err = os.Pipe(); err != nil {
		c.close()
		return nil, err
	}
	return c, nil
}

// start drops the parent's write ends and begins copying. Call it after the child
// has started so EOF arrives once every holder of the pipes is gone.
func (c *outputCapture) start() {
	c.closeWriters()
	c.wg.Add(2)
	go c.copy(c.stdout, c.stdoutR)
	go c.copy(c.stderr, c.stderrR)
}

func (c *outputCapture) copy(dst io.Writer, src *os.File) {
	defer c.wg.Done()
	_, _ = io.Copy(dst, src)
}

// drain waits up to timeout for both copies to hit EOF, then closes the read ends
// so a writer that escaped the process group cannot block the caller.
func (c *outputCapture) drain(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		c.closeReaders()
		<-done
	}
}

func (c *outputCapture) closeWriters() {
	for _, f := range []*os.File{c.stdoutW, c.stderrW} {
		if f != nil {
			f.Close()
		}
	}
}

func (c *outputCapture) closeReaders() {
	for _, f := range []*os.File{c.stdoutR, c.stderrR} {
		if f != nil {
			f.Close()
		}
	}
}

func (c *outputCapture) close() {
	c.closeWriters()
	c.closeReaders()
}
