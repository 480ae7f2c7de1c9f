package engine

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
)

// Settings is the engine configuration applied per statement. Command
// execution treats it as immutable; the SESSION variant updates it between
// statements.
type Settings struct {
	// MaxRows limits tabular payload materialization; zero means unlimited.
	MaxRows int
	// Timeout bounds each statement execution; zero means none.
	Timeout time.Duration
	// FetchSize is a cursor fetch-size hint passed to the handle.
	FetchSize int
	// UseSavepoints guards each statement with a savepoint when the handle
	// supports them.
	UseSavepoints bool
	// IgnoreDropErrors demotes failed structural drops to successes with a
	// warning, so best-effort cleanup scripts keep going.
	IgnoreDropErrors bool
	// QuietIgnored silences the informational message of ignored statements.
	QuietIgnored bool
	// IgnoredVerbs lists foreign-tool directives (uppercase) that are never
	// sent to the database.
	IgnoredVerbs []string
}

// DefaultSettings returns the settings used when the caller supplies none.
func DefaultSettings() Settings {
	return Settings{
		UseSavepoints: true,
		IgnoredVerbs:  []string{"ECHO", "PROMPT", "SPOOL", "PAUSE", "REM", "WHENEVER", "DEFINE"},
	}
}

// ObjectCache is the invalidation hook for a caller-owned cache of database
// object metadata.
type ObjectCache interface {
	RemoveTable(name string)
	RemoveSchema(name string)
	Flush()
}

// Notifier receives engine notifications collaborators use to refresh cached
// metadata.
type Notifier interface {
	// CatalogChanged signals that the list of databases changed.
	CatalogChanged()
	// SchemaChanged reports the resolved new current schema or search path.
	SchemaChanged(schema string)
}

// RowConsumer receives a live cursor in streaming mode. The consumer owns the
// result set and must drain or close it.
type RowConsumer interface {
	Consume(rs database.ResultSet) error
}

// SessionState is per-session state threaded through the execution context so
// tests can construct isolated sessions.
type SessionState struct {
	lastDDLType string
	lastDDLName string
	props       map[string]string
	prepared    map[string]bool
}

func NewSessionState() *SessionState {
	return &SessionState{
		props:    map[string]string{},
		prepared: map[string]bool{},
	}
}

// SetLastDDLObject records the most recent rememberable DDL target; later
// error lookups with no object name run against it.
func (s *SessionState) SetLastDDLObject(objType, name string) {
	s.lastDDLType = objType
	s.lastDDLName = name
}

func (s *SessionState) LastDDLObject() (objType, name string) {
	return s.lastDDLType, s.lastDDLName
}

// SetProperty stores a family-specific session toggle (e.g. execution-plan
// display) under a string key.
func (s *SessionState) SetProperty(key, value string) {
	s.props[strings.ToLower(key)] = value
}

func (s *SessionState) Property(key string) string {
	return s.props[strings.ToLower(key)]
}

// RegisterPrepared adds a statement text to the prepared-statement cache.
func (s *SessionState) RegisterPrepared(sql string) {
	s.prepared[sql] = true
}

func (s *SessionState) IsPrepared(sql string) bool {
	return s.prepared[sql]
}

// Context carries the per-statement-run state: the borrowed database handle,
// the at-most-one live savepoint, the shared cancellation flag, settings, and
// the collaborator hooks. Not safe for concurrent statement execution;
// RequestCancel is the only method meant for another goroutine.
type Context struct {
	Handle   database.Handle
	Caps     database.Capabilities
	Settings Settings
	Session  *SessionState

	// Cache, Notify and Consumer are optional collaborator capabilities.
	Cache    ObjectCache
	Notify   Notifier
	Consumer RowConsumer

	Log *logrus.Entry

	cancelled atomic.Bool
	savepoint string
}

// NewContext builds a context around a live handle. session may be nil for a
// fresh isolated session.
func NewContext(h database.Handle, settings Settings, session *SessionState) *Context {
	if session == nil {
		session = NewSessionState()
	}
	caps := h.Capabilities()
	return &Context{
		Handle:   h,
		Caps:     caps,
		Settings: settings,
		Session:  session,
		Log:      logrus.StandardLogger().WithField("family", caps.Family),
	}
}

// RequestCancel sets the cooperative cancellation flag and side-calls the
// handle's own cancel capability for genuine mid-call interruption. Safe to
// call from another goroutine.
func (ec *Context) RequestCancel(ctx context.Context) {
	ec.cancelled.Store(true)
	if err := ec.Handle.CancelInFlight(ctx); err != nil {
		ec.Log.WithError(err).Debug("in-flight cancel not delivered")
	}
}

// Cancelled reports whether cancellation was requested. Commands poll this
// immediately after blocking calls return.
func (ec *Context) Cancelled() bool {
	return ec.cancelled.Load()
}

func (ec *Context) resetCancel() {
	ec.cancelled.Store(false)
}

func (ec *Context) execOptions() database.ExecOptions {
	return database.ExecOptions{
		MaxRows:   ec.Settings.MaxRows,
		Timeout:   ec.Settings.Timeout,
		FetchSize: ec.Settings.FetchSize,
	}
}

// acquireSavepoint creates the statement savepoint when policy asks for one
// and the handle supports it. Returns whether a savepoint is now active.
// Failure to create one is a degradation, not an error. Acquiring while one
// is live is a programming error.
func (ec *Context) acquireSavepoint(ctx context.Context) bool {
	if !ec.Settings.UseSavepoints {
		return false
	}
	if ec.savepoint != "" {
		panic("engine: savepoint already active for this statement")
	}
	if !ec.Caps.SupportsSavepoints {
		ec.Log.Warn("savepoints not supported, statement runs unguarded")
		return false
	}
	name := "sp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := ec.Handle.CreateSavepoint(ctx, name); err != nil {
		ec.Log.WithError(err).Warn("savepoint not created, statement runs unguarded")
		return false
	}
	ec.savepoint = name
	return true
}

// releaseSavepoint resolves the active savepoint on the success path. No-op
// when none is active.
func (ec *Context) releaseSavepoint(ctx context.Context) {
	if ec.savepoint == "" {
		return
	}
	name := ec.savepoint
	ec.savepoint = ""
	if err := ec.Handle.ReleaseSavepoint(ctx, name); err != nil {
		ec.Log.WithError(err).Warn("savepoint release failed")
	}
}

// rollbackSavepoint resolves the active savepoint on the failure path. No-op
// when none is active.
func (ec *Context) rollbackSavepoint(ctx context.Context) {
	if ec.savepoint == "" {
		return
	}
	name := ec.savepoint
	ec.savepoint = ""
	if err := ec.Handle.RollbackSavepoint(ctx, name); err != nil {
		ec.Log.WithError(err).Warn("savepoint rollback failed")
	}
}

func (ec *Context) logOptionNotes(notes []string) {
	for _, n := range notes {
		ec.Log.Warn(n)
	}
}

// isFatal reports whether an execution error must abort the whole run rather
// than resolve into a statement-level failure. Cancellation or expiry of the
// run's own context means the environment is tearing the run down.
func isFatal(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}
