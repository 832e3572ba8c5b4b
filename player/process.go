package player

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"go-livedeck/debug"
)

// ErrExited is returned when a command is sent to an engine that has exited.
var ErrExited = errors.New("engine process exited")

// ProcessConfig describes how to launch an external engine.
type ProcessConfig struct {
	Command []string
	Env     []string // appended to the current environment
	Dir     string
}

// Process talks to an engine over a line protocol on its stdin:
//
//	code <base64 pattern text>
//	eval
//	stop
//
// Every stdout line is appended to the log.
type Process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	log   *Log

	mu        sync.Mutex
	running   bool
	exited    bool
	evaluated time.Time

	done    chan struct{}
	waitErr error
}

// StartProcess launches the engine. The process is killed when ctx is done.
func StartProcess(ctx context.Context, cfg ProcessConfig, log *Log) (*Process, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("engine command is empty")
	}
	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = cfg.Dir
	if len(cfg.Env) > 0 {
		cmd.Env = append(cmd.Environ(), cfg.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", cfg.Command[0], err)
	}
	debug.Log("engine", "started %v (pid %d)", cfg.Command, cmd.Process.Pid)

	p := &Process{cmd: cmd, stdin: stdin, log: log, done: make(chan struct{})}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			log.Append(scanner.Text())
		}
	}()
	go func() {
		defer readers.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			debug.Log("engine", "stderr: %s", scanner.Text())
		}
	}()
	go func() {
		// pipes must be drained before Wait closes them
		readers.Wait()
		err := cmd.Wait()
		p.mu.Lock()
		p.exited = true
		p.running = false
		p.waitErr = err
		p.mu.Unlock()
		debug.Log("engine", "exited: %v", err)
		close(p.done)
	}()
	return p, nil
}

func (p *Process) send(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return ErrExited
	}
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		return fmt.Errorf("write to engine: %w", err)
	}
	return nil
}

func (p *Process) SetCode(code string) error {
	return p.send("code " + base64.StdEncoding.EncodeToString([]byte(code)))
}

func (p *Process) Evaluate() error {
	if err := p.send("eval"); err != nil {
		return err
	}
	p.mu.Lock()
	p.running = true
	p.evaluated = time.Now()
	p.mu.Unlock()
	return nil
}

func (p *Process) Stop() error {
	if err := p.send("stop"); err != nil {
		return err
	}
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// CurrentTime is the seconds since the last evaluate, or 0 when stopped.
func (p *Process) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return 0
	}
	return time.Since(p.evaluated).Seconds()
}

// Done is closed once the engine has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Close closes the engine's stdin and waits for it to exit, killing it if
// it has not exited after timeout.
func (p *Process) Close(timeout time.Duration) error {
	p.mu.Lock()
	p.stdin.Close()
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-time.After(timeout):
		debug.Log("engine", "did not exit within %v, killing", timeout)
		_ = p.cmd.Process.Kill()
		<-p.done
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitErr
}
