// Package manager holds the current size configuration and keeps the
// injected stylesheet, the persisted state and subscribers in step with it.
//
// A Manager is explicitly constructed and owned; Default exists only as a
// convenience for small programs. Every mutation follows the same order
// under one lock: merge, validate, render into the style sink, persist,
// then notify subscribers after the lock is released. Only validation errors are returned to callers. Unknown
// presets, storage failures, corrupt saved state and use after Destroy are
// logged and otherwise ignored.
package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/logging"
	"github.com/conneroisu/sizekit/internal/notify"
	"github.com/conneroisu/sizekit/internal/preset"
	"github.com/conneroisu/sizekit/internal/store"
	"github.com/conneroisu/sizekit/internal/style"
	"github.com/conneroisu/sizekit/internal/tokens"
)

// DefaultStorageKey is the persistence slot used when none is configured.
const DefaultStorageKey = "sizekit-config"

// Listener is called with a copy of the new configuration after each
// applied change.
type Listener func(cfg tokens.Config)

// Options configures a Manager.
type Options struct {
	// StorageKey selects the persistence slot.
	StorageKey string
	// Presets extend or override the built-in table.
	Presets []preset.Preset
	// DefaultPreset selects the initial state when nothing is persisted.
	DefaultPreset string
	// CacheLimit bounds the generator caches when Generator is nil.
	CacheLimit int
	// Minify emits minified stylesheets into the sink.
	Minify bool

	Store     store.Store
	Sink      style.Sink
	Logger    logging.Logger
	Generator *tokens.Generator
}

// State is the persisted form of a manager's configuration.
type State struct {
	Config     tokens.Config `json:"config"`
	PresetName string        `json:"presetName"`
}

// Manager orchestrates stylesheet regeneration for one configuration.
type Manager struct {
	mu sync.Mutex

	storageKey    string
	defaultPreset string
	minify        bool

	registry  *preset.Registry
	generator *tokens.Generator
	ownsGen   bool
	store     store.Store
	sink      style.Sink
	logger    logging.Logger

	config     tokens.Config
	presetName string
	css        string

	listeners *notify.Hub[tokens.Config]
	destroyed bool
}

// New constructs a ready manager. Saved state under opts.StorageKey is
// restored when present and valid; otherwise the default preset applies.
// The returned error covers invalid options only.
func New(ctx context.Context, opts Options) (*Manager, error) {
	m := &Manager{
		storageKey:    opts.StorageKey,
		defaultPreset: opts.DefaultPreset,
		minify:        opts.Minify,
		registry:      preset.NewRegistry(),
		generator:     opts.Generator,
		store:         opts.Store,
		sink:          opts.Sink,
		logger:        opts.Logger,
	}

	if m.storageKey == "" {
		m.storageKey = DefaultStorageKey
	}
	if m.defaultPreset == "" {
		m.defaultPreset = preset.DefaultName
	}
	if m.generator == nil {
		m.generator = tokens.NewGenerator(tokens.GeneratorOptions{CacheLimit: opts.CacheLimit})
		m.ownsGen = true
	}
	if m.store == nil {
		m.store = store.NewMemory()
	}
	if m.sink == nil {
		m.sink = style.NewElement(style.DefaultID)
	}
	if m.logger == nil {
		m.logger = logging.NewNop()
	}
	m.logger = m.logger.WithComponent("manager").With("storage_key", m.storageKey)
	m.listeners = notify.New[tokens.Config](func(id uint64, r any) {
		m.logger.Error(context.Background(),
			errors.NewInternalError(errors.ErrCodeListenerPanic, fmt.Sprint(r), nil),
			"listener panicked", "listener", id)
	})

	for _, p := range opts.Presets {
		if err := m.registry.Register(p); err != nil {
			return nil, fmt.Errorf("register preset: %w", err)
		}
	}

	def, ok := m.registry.Get(m.defaultPreset)
	if !ok {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("default preset %q is not registered", m.defaultPreset))
	}

	m.config = def.Config()
	m.presetName = def.Name
	m.restore(ctx)

	m.css = m.render(m.config)
	if err := m.sink.SetText(ctx, m.css); err != nil {
		m.logger.Error(ctx, err, "failed to inject stylesheet")
	}

	return m, nil
}

// restore loads persisted state, keeping defaults on any failure.
func (m *Manager) restore(ctx context.Context) {
	data, ok, err := m.store.Load(ctx, m.storageKey)
	if err != nil {
		m.logger.Error(ctx, errors.WrapPersistence(err, "load failed"), "failed to load saved state, using defaults")
		return
	}
	if !ok {
		return
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		m.logger.Error(ctx, errors.NewPersistenceError(errors.ErrCodeCorruptState, "unparseable saved state", err),
			"saved state is corrupt, using defaults")
		return
	}
	if err := preset.ValidateConfig(st.Config); err != nil {
		m.logger.Error(ctx, errors.NewPersistenceError(errors.ErrCodeCorruptState, "invalid saved config", err),
			"saved state is corrupt, using defaults")
		return
	}

	m.config = st.Config
	if m.registry.Has(st.PresetName) {
		m.presetName = st.PresetName
	} else {
		m.logger.Warn(ctx, nil, "saved preset is not registered, keeping default name",
			"preset", st.PresetName)
	}

	m.logger.Debug(ctx, "restored saved state", "preset", m.presetName, "base_size", m.config.BaseSize)
}

func (m *Manager) render(cfg tokens.Config) string {
	if m.minify {
		return m.generator.GenerateMinified(cfg)
	}

	return m.generator.GenerateConfig(cfg)
}

// Config returns a copy of the current configuration.
func (m *Manager) Config() tokens.Config {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.config
}

// CurrentPreset returns the active preset name.
func (m *Manager) CurrentPreset() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.presetName
}

// CSS returns the stylesheet last written to the sink.
func (m *Manager) CSS() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.css
}

// State returns the persisted form of the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return State{Config: m.config, PresetName: m.presetName}
}

// Presets lists registered presets in registration order.
func (m *Manager) Presets() []preset.Preset {
	return m.registry.List()
}

// Generator exposes the stylesheet generator, e.g. for token listings.
func (m *Manager) Generator() *tokens.Generator {
	return m.generator
}

// Destroyed reports whether Destroy has been called.
func (m *Manager) Destroyed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.destroyed
}

// ApplyPreset switches to the named preset. Unknown names are logged and
// leave the state unchanged. It reports whether the preset was applied.
func (m *Manager) ApplyPreset(ctx context.Context, name string) bool {
	applied, err := m.commit(ctx, "apply preset", func(State) (State, bool, error) {
		p, ok := m.registry.Get(name)
		if !ok {
			return State{}, false, errors.NewLookupError(errors.ErrCodeUnknownPreset, "unknown preset").
				WithContext("preset", name)
		}

		return State{Config: p.Config(), PresetName: p.Name}, true, nil
	})
	if err != nil {
		m.logger.Warn(ctx, err, "preset not found, ignoring", "preset", name)
	}

	return applied
}

// SetBaseSize changes the base size, keeping the current preset name and
// scale overrides. Out of range values return a validation error and leave
// the state unchanged.
func (m *Manager) SetBaseSize(ctx context.Context, px float64) error {
	return m.SetConfig(ctx, Patch{BaseSize: &px})
}

// SetConfig merges patch into the current configuration, validates the
// result and applies it. Validation errors leave the state unchanged.
// Concurrent calls are applied one after another, each merging into the
// result of the previous one.
func (m *Manager) SetConfig(ctx context.Context, patch Patch) error {
	_, err := m.commit(ctx, "set config", func(cur State) (State, bool, error) {
		next := patch.Apply(cur.Config)
		if err := preset.ValidateConfig(next); err != nil {
			return State{}, false, err
		}

		return State{Config: next, PresetName: cur.PresetName}, true, nil
	})

	return err
}

// RegisterPreset adds or replaces a preset. Replacing the active preset
// re-applies it.
func (m *Manager) RegisterPreset(ctx context.Context, p preset.Preset) error {
	if m.Destroyed() {
		m.warnDestroyed(ctx, "register preset")
		return nil
	}
	if err := m.registry.Register(p); err != nil {
		return err
	}

	_, err := m.commit(ctx, "register preset", func(cur State) (State, bool, error) {
		if cur.PresetName != p.Name {
			return cur, false, nil
		}
		current, ok := m.registry.Get(p.Name)
		if !ok {
			return cur, false, nil
		}

		return State{Config: current.Config(), PresetName: current.Name}, true, nil
	})

	return err
}

// mutation derives the next state from the current one. Returning false
// without an error leaves the state untouched.
type mutation func(cur State) (next State, apply bool, err error)

// commit runs next against the current state and applies its result:
// render, write the sink, persist, then queue a notification. The whole
// sequence holds m.mu, so concurrent mutations never merge into stale
// state. Listeners run after the lock is released. Returns false when
// nothing was applied, including when the manager is destroyed.
func (m *Manager) commit(ctx context.Context, op string, next mutation) (bool, error) {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		m.warnDestroyed(ctx, op)
		return false, nil
	}

	st, apply, err := next(State{Config: m.config, PresetName: m.presetName})
	if err != nil || !apply {
		m.mu.Unlock()
		return false, err
	}

	css := m.render(st.Config)
	m.config = st.Config
	m.presetName = st.PresetName
	m.css = css

	if err := m.sink.SetText(ctx, css); err != nil {
		m.logger.Error(ctx, err, "failed to inject stylesheet", "op", op)
	}
	m.persist(ctx)

	m.listeners.Enqueue(st.Config)
	m.mu.Unlock()

	m.logger.Debug(ctx, "configuration applied", "op", op, "preset", st.PresetName, "base_size", st.Config.BaseSize)
	m.listeners.Drain()

	return true, nil
}

// persist writes the current state. Caller holds m.mu.
func (m *Manager) persist(ctx context.Context) {
	data, err := json.Marshal(State{Config: m.config, PresetName: m.presetName})
	if err != nil {
		m.logger.Error(ctx, err, "failed to encode state")
		return
	}
	if err := m.store.Save(ctx, m.storageKey, data); err != nil {
		m.logger.Error(ctx, errors.WrapPersistence(err, "save failed"), "failed to persist state")
	}
}

// Subscribe registers fn for change notifications, delivered in
// registration order after the stylesheet is written. The returned function
// removes it and is safe to call more than once. Subscribing after Destroy
// logs a warning and returns a no-op.
func (m *Manager) Subscribe(fn Listener) func() {
	unsub, ok := m.listeners.Subscribe(fn)
	if !ok {
		m.warnDestroyed(context.Background(), "subscribe")
	}

	return unsub
}

// SubscriberCount reports registered listeners.
func (m *Manager) SubscriberCount() int {
	return m.listeners.Len()
}

// Destroy removes the injected stylesheet, drops subscribers and caches and
// marks the manager permanently destroyed. Calling it again is a no-op.
func (m *Manager) Destroy(ctx context.Context) error {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return nil
	}
	m.destroyed = true
	m.listeners.Close()
	m.css = ""
	m.mu.Unlock()

	if m.ownsGen {
		m.generator.Reset()
	}

	var errs []error
	if err := m.sink.Remove(ctx); err != nil {
		errs = append(errs, errors.WrapIO(err, "failed to remove stylesheet"))
	}

	m.logger.Debug(ctx, "manager destroyed")

	return errors.Combine(errs...)
}

func (m *Manager) warnDestroyed(ctx context.Context, op string) {
	m.logger.Warn(ctx, errors.ErrDestroyed, "operation on destroyed manager ignored", "op", op)
}
