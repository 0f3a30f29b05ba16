package output

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Output is the side channel demo components print their effects to.
type Output interface {
	Printf(format string, args ...interface{})
}

type Func func(string, ...interface{})

func (f Func) Printf(format string, args ...interface{}) { f(format, args...) }

type console struct {
	w io.Writer
}

func (c *console) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.w, format+"\n", args...)
}

func NewConsole() Output {
	return &console{w: os.Stdout}
}

func NewWriter(w io.Writer) Output {
	return &console{w: w}
}

// Recorder keeps every formatted line in memory.
type Recorder struct {
	lines []string
	mu    sync.Mutex
}

func (r *Recorder) Printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.lines...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = nil
}

func NewRecorder() *Recorder {
	return &Recorder{}
}
