package script

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CommandFunc runs a static command. args has exactly the registered arity.
type CommandFunc func(args []string)

// Invoker calls a command by name.
type Invoker interface {
	Invoke(target, method string, args ...string) error
}

type command struct {
	arity int
	fn    CommandFunc
}

// Commands is the name-indexed table of static entry points the host can
// call, keyed by "target.method".
type Commands struct {
	mu    sync.RWMutex
	table map[string]command
}

func NewCommands() *Commands {
	return &Commands{table: map[string]command{}}
}

// CommandKey joins a target and method into the table key.
func CommandKey(target, method string) string {
	return target + "." + method
}

// SplitCommandKey splits "a.b.Method" into ("a.b", "Method").
func SplitCommandKey(key string) (target, method string, ok bool) {
	i := strings.LastIndex(key, ".")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

func (c *Commands) Register(target, method string, arity int, fn CommandFunc) error {
	if strings.TrimSpace(target) == "" || strings.TrimSpace(method) == "" || fn == nil || arity < 0 {
		return fmt.Errorf("%w: %q.%q", ErrInvalidName, target, method)
	}
	key := CommandKey(target, method)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.table == nil {
		c.table = map[string]command{}
	}
	if _, ok := c.table[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, key)
	}
	c.table[key] = command{arity: arity, fn: fn}
	return nil
}

func (c *Commands) Invoke(target, method string, args ...string) error {
	key := CommandKey(target, method)

	c.mu.RLock()
	cmd, ok := c.table[key]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, key)
	}
	if len(args) != cmd.arity {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrArity, key, cmd.arity, len(args))
	}

	// the lock is released so commands may invoke other commands
	cmd.fn(append([]string(nil), args...))
	return nil
}

// Names returns the sorted command keys.
func (c *Commands) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.table))
	for name := range c.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
