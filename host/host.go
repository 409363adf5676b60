// Package host drives script instances: it owns the script types, binds
// instances to entities and runs their Start and Update hooks each frame.
package host

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/milk9111/scripthost/assembly"
	"github.com/milk9111/scripthost/managed"
	"github.com/milk9111/scripthost/script"
	"github.com/milk9111/scripthost/trace"
	"go.uber.org/zap"
)

var (
	ErrNotInitialized = errors.New("host: not initialized")
	ErrUnknownScript  = errors.New("host: unknown script type")
	ErrUnknownEntity  = errors.New("host: unknown entity")
)

const (
	EngineTarget = "ScriptAPI.EngineInterface"
	PingMethod   = "Ping"
)

// Host is the engine side of the scripting contract.
//
// Lifecycle methods are meant to be called from one frame loop. Commands run
// without the host lock, so they must not call back into lifecycle methods.
type Host struct {
	mu sync.Mutex

	logger   *zap.Logger
	tracer   trace.Tracer
	scripts  fs.FS
	extra    []script.Type
	commands atomic.Pointer[script.Commands]

	initialized bool
	native      map[string]script.Type
	dynamic     map[string]script.Type
	entities    slots
	frame       uint64
}

type Option func(*Host)

func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(h *Host) {
		if t != nil {
			h.tracer = t
		}
	}
}

// WithScripts sets the file system dynamic script types are loaded from.
func WithScripts(fsys fs.FS) Option {
	return func(h *Host) {
		h.scripts = fsys
	}
}

// WithScriptsDir loads dynamic script types from a directory on disk.
func WithScriptsDir(dir string) Option {
	return func(h *Host) {
		if dir != "" {
			h.scripts = os.DirFS(dir)
		}
	}
}

// WithTypes adds native script types registered on every Init.
func WithTypes(types ...script.Type) Option {
	return func(h *Host) {
		h.extra = append(h.extra, types...)
	}
}

func New(opts ...Option) *Host {
	h := &Host{
		logger:  zap.NewNop(),
		tracer:  trace.NewWriter(os.Stdout),
		native:  map[string]script.Type{},
		dynamic: map[string]script.Type{},
	}
	h.commands.Store(script.NewCommands())
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Init registers the native scripts and commands and loads the dynamic
// script types.
func (h *Host) Init() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		h.logger.Warn("host already initialized")
		return nil
	}

	dynamic := map[string]script.Type{}
	if h.scripts != nil {
		asm, err := assembly.Load(h.scripts, h.env())
		if err != nil {
			return fmt.Errorf("host: init: %w", err)
		}
		for _, t := range asm.Types {
			dynamic[t.Name] = t
		}
	}

	cmds := h.commands.Load()
	h.native = map[string]script.Type{}
	h.dynamic = dynamic
	reg := lockedRegistrar{h}
	err := errors.Join(
		managed.Register(reg, cmds, h.tracer),
		cmds.Register(EngineTarget, PingMethod, 0, func([]string) {
			trace.Tracef(h.tracer, "---> EngineInterface.Ping() called from host")
		}),
	)
	for _, t := range h.extra {
		err = errors.Join(err, reg.RegisterType(t))
	}
	if err != nil {
		h.native = map[string]script.Type{}
		h.dynamic = map[string]script.Type{}
		h.commands.Store(script.NewCommands())
		return fmt.Errorf("host: init: %w", err)
	}

	h.initialized = true
	h.logger.Info("host initialized",
		zap.Int("native_types", len(h.native)),
		zap.Int("dynamic_types", len(h.dynamic)),
		zap.Strings("commands", cmds.Names()))
	return nil
}

// RegisterType adds a native script type.
func (h *Host) RegisterType(t script.Type) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registerTypeLocked(t)
}

func (h *Host) registerTypeLocked(t script.Type) error {
	if t.Name == "" || t.New == nil {
		return fmt.Errorf("host: %w: %q", script.ErrInvalidName, t.Name)
	}
	if h.hasTypeLocked(t.Name) {
		return fmt.Errorf("host: %w: %s", script.ErrDuplicateType, t.Name)
	}
	if t.Source == "" {
		t.Source = script.SourceNative
	}
	h.native[t.Name] = t
	return nil
}

type lockedRegistrar struct {
	h *Host
}

func (r lockedRegistrar) RegisterType(t script.Type) error {
	return r.h.registerTypeLocked(t)
}

func (h *Host) hasTypeLocked(name string) bool {
	_, native := h.native[name]
	_, dynamic := h.dynamic[name]
	return native || dynamic
}

func (h *Host) lookupTypeLocked(name string) (script.Type, bool) {
	if t, ok := h.native[name]; ok {
		return t, true
	}
	t, ok := h.dynamic[name]
	return t, ok
}

// Types returns every registered type name, sorted.
func (h *Host) Types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.native)+len(h.dynamic))
	for name := range h.native {
		names = append(names, name)
	}
	for name := range h.dynamic {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddScript constructs an instance of typeName and attaches it to entity.
func (h *Host) AddScript(entity script.EntityID, typeName string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		return ErrNotInitialized
	}
	t, ok := h.lookupTypeLocked(typeName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScript, typeName)
	}

	inst := t.New()
	inst.AttachEntity(entity)
	att := &attachment{
		id:       uuid.NewString(),
		typeName: t.Name,
		script:   inst,
		dynamic:  t.Dynamic(),
	}
	slot := h.entities.GetOrCreate(entity)
	slot.attachments = append(slot.attachments, att)

	h.logger.Debug("script attached",
		zap.String("entity", string(entity)),
		zap.String("script", t.Name),
		zap.String("instance", att.id))
	return nil
}

// ExecuteStartForEntity starts every instance on entity that has not been
// started yet.
func (h *Host) ExecuteStartForEntity(entity script.EntityID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		return ErrNotInitialized
	}
	slot := h.entities.Get(entity)
	if slot == nil {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	for _, att := range slot.attachments {
		h.startLocked(slot.entity, att)
	}
	return nil
}

func (h *Host) startLocked(entity script.EntityID, att *attachment) {
	if att.started {
		return
	}
	att.started = true
	h.logger.Debug("script start",
		zap.String("entity", string(entity)),
		zap.String("script", att.typeName),
		zap.String("instance", att.id))
	att.script.Start()
}

// ExecuteUpdate runs one frame: every instance is started if needed, then
// updated, in attach order.
func (h *Host) ExecuteUpdate() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		return
	}
	h.frame++
	for _, slot := range h.entities.Slots() {
		for _, att := range slot.attachments {
			h.startLocked(slot.entity, att)
			att.script.Update()
		}
	}
}

// RemoveEntity drops entity and all its instances.
func (h *Host) RemoveEntity(entity script.EntityID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	ok := h.entities.Remove(entity)
	if ok {
		h.logger.Debug("entity removed", zap.String("entity", string(entity)))
	}
	return ok
}

// Reload loads the dynamic script types again. On failure the current types
// and instances are kept. On success every dynamic instance is rebuilt and,
// if it had been started, started again; native instances are untouched.
func (h *Host) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		return ErrNotInitialized
	}
	if h.scripts == nil {
		h.logger.Debug("reload skipped, no script source")
		return nil
	}

	asm, err := assembly.Load(h.scripts, h.env())
	if err != nil {
		h.logger.Warn("reload failed, keeping previous scripts", zap.Error(err))
		return fmt.Errorf("host: reload: %w", err)
	}
	dynamic := make(map[string]script.Type, len(asm.Types))
	for _, t := range asm.Types {
		if _, ok := h.native[t.Name]; ok {
			err := fmt.Errorf("host: reload: %w: %s shadows a native type", script.ErrDuplicateType, t.Name)
			h.logger.Warn("reload failed, keeping previous scripts", zap.Error(err))
			return err
		}
		dynamic[t.Name] = t
	}
	h.dynamic = dynamic

	var rebuilt, dropped int
	for _, slot := range h.entities.Slots() {
		kept := slot.attachments[:0]
		for _, att := range slot.attachments {
			if !att.dynamic {
				kept = append(kept, att)
				continue
			}
			t, ok := dynamic[att.typeName]
			if !ok {
				dropped++
				h.logger.Warn("script type removed, dropping instance",
					zap.String("entity", string(slot.entity)),
					zap.String("script", att.typeName),
					zap.String("instance", att.id))
				continue
			}
			inst := t.New()
			inst.AttachEntity(slot.entity)
			att.script = inst
			if att.started {
				att.started = false
				h.startLocked(slot.entity, att)
			}
			rebuilt++
			kept = append(kept, att)
		}
		for i := len(kept); i < len(slot.attachments); i++ {
			slot.attachments[i] = nil
		}
		slot.attachments = kept
	}

	h.logger.Info("scripts reloaded",
		zap.Strings("types", asm.Names()),
		zap.Int("rebuilt", rebuilt),
		zap.Int("dropped", dropped))
	return nil
}

// Shutdown drops every instance, type and command. The host can be
// initialized again afterwards.
func (h *Host) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		return
	}
	h.entities.Reset()
	h.native = map[string]script.Type{}
	h.dynamic = map[string]script.Type{}
	h.commands.Store(script.NewCommands())
	h.initialized = false
	h.logger.Info("host shut down", zap.Uint64("frames", h.frame))
	h.frame = 0
}

// Invoke calls a static command by name. It does not take the host lock and
// may be called from scripts.
func (h *Host) Invoke(target, method string, args ...string) error {
	return h.commands.Load().Invoke(target, method, args...)
}

// Ping invokes the engine's ping command.
func (h *Host) Ping() error {
	return h.Invoke(EngineTarget, PingMethod)
}

// Commands returns the current command table, for registering extra
// commands.
func (h *Host) Commands() *script.Commands {
	return h.commands.Load()
}

// Frame returns the number of frames run since Init.
func (h *Host) Frame() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame
}

// Entities returns the entities with attached scripts, in update order.
func (h *Host) Entities() []script.EntityID {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]script.EntityID, 0, h.entities.Len())
	for _, slot := range h.entities.Slots() {
		out = append(out, slot.entity)
	}
	return out
}

// Scripts returns the instances attached to entity, in attach order.
func (h *Host) Scripts(entity script.EntityID) []script.Script {
	h.mu.Lock()
	defer h.mu.Unlock()
	slot := h.entities.Get(entity)
	if slot == nil {
		return nil
	}
	out := make([]script.Script, 0, len(slot.attachments))
	for _, att := range slot.attachments {
		out = append(out, att.script)
	}
	return out
}

func (h *Host) env() script.Env {
	return script.Env{
		Tracer:   h.tracer,
		Commands: h,
		Logger:   h.logger.Named("script"),
	}
}
