package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/timeseries-dashboard/backend/internal/analysis"
	"github.com/timeseries-dashboard/backend/internal/dataset"
	"github.com/timeseries-dashboard/backend/internal/logging"
	"github.com/timeseries-dashboard/backend/internal/models"
	"github.com/timeseries-dashboard/backend/internal/parser"
	"github.com/timeseries-dashboard/backend/internal/storage"
	"github.com/timeseries-dashboard/backend/internal/store"
)

// DefaultMaxSessions limits concurrent sessions to bound memory use.
const DefaultMaxSessions = 50

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

// sniffSize is how much of an upload is inspected to pick a parser.
const sniffSize = 4096

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoFile is returned for report requests before the first upload.
	ErrNoFile = errors.New("no file uploaded yet")
)

// InputError is an upload or column choice the pipeline cannot start from.
// The session is back in the awaiting-file state when Upload returns one.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// TableStore holds the year-indexed table of one session.
type TableStore interface {
	Load(ctx context.Context, t *models.YearTable) error
	Cells(ctx context.Context, column string) ([]models.Cell, error)
	Close() error
}

// TableFactory opens an empty TableStore for a new upload.
type TableFactory func() (TableStore, error)

type summarizer interface {
	Summary(ctx context.Context) (*store.Summary, error)
}

// State is the context of one session. Interactions on a session are
// serialized by mu; the derived fields are replaced together after each one.
type State struct {
	mu      sync.RWMutex
	deleted bool

	Session *models.AnalysisSession
	FileID  string
	Table   TableStore
	Report  *models.Report

	lastAccessed time.Time // guarded by Manager.mu
}

// Manager owns all analysis sessions.
type Manager struct {
	sessions    map[string]*State
	mu          sync.RWMutex
	registry    *parser.Registry
	files       storage.Store
	newTable    TableFactory
	maxSessions int
	log         *log.Logger
}

// NewManager creates a session manager. Uploads are kept in files and each
// loaded table lives in a store created by newTable.
func NewManager(files storage.Store, newTable TableFactory, maxSessions int) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Manager{
		sessions:    make(map[string]*State),
		registry:    parser.GetGlobalRegistry(),
		files:       files,
		newTable:    newTable,
		maxSessions: maxSessions,
		log:         logging.For("session"),
	}
}

// Create starts a session in the awaiting-file state.
func (m *Manager) Create() *models.AnalysisSession {
	m.evictIfNeeded()

	id := uuid.New().String()
	state := &State{
		Session:      models.NewAnalysisSession(id),
		lastAccessed: time.Now(),
	}

	m.mu.Lock()
	m.sessions[id] = state
	m.mu.Unlock()

	m.log.Infof("[%s] created", short(id))
	return state.view()
}

// GetSession returns a snapshot of the session.
func (m *Manager) GetSession(id string) (*models.AnalysisSession, bool) {
	state, ok := m.get(id)
	if !ok {
		return nil, false
	}
	state.mu.RLock()
	defer state.mu.RUnlock()
	if state.deleted {
		return nil, false
	}
	return state.view(), true
}

// Report returns the analysis of the selected column.
func (m *Manager) Report(id string) (*models.Report, error) {
	state, ok := m.get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	state.mu.RLock()
	defer state.mu.RUnlock()
	if state.deleted {
		return nil, ErrSessionNotFound
	}
	if state.Report == nil {
		return nil, ErrNoFile
	}
	return state.Report, nil
}

// Upload ingests a file, selects column (the first value column when empty)
// and runs every analyzer. Any previous file and its derived state are
// discarded first; a failed upload leaves the session awaiting a file.
func (m *Manager) Upload(ctx context.Context, id, name string, r io.Reader, column string) (*models.AnalysisSession, error) {
	state, ok := m.get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.deleted {
		return nil, ErrSessionNotFound
	}

	start := time.Now()
	m.reset(state)

	info, err := m.files.Save(name, r)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrCorrupt) {
			return nil, &InputError{Err: err}
		}
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	state.FileID = info.ID
	m.log.Infof("[%s] stored %s (%d bytes, gzip=%v)", short(id), info.Name, info.Size, info.Compressed)

	raw, err := m.parseFile(info.ID)
	if err != nil {
		m.reset(state)
		return nil, &InputError{Err: err}
	}

	preview := dataset.Preview(raw, models.PreviewRows)
	table, err := dataset.BuildYearTable(raw)
	if err != nil {
		m.reset(state)
		return nil, &InputError{Err: err}
	}
	if column == "" {
		column = table.Columns[0]
	} else if table.ColumnIndex(column) < 0 {
		m.reset(state)
		return nil, &InputError{Err: fmt.Errorf("%w: %q", dataset.ErrUnknownColumn, column)}
	}

	ts, err := m.newTable()
	if err != nil {
		m.reset(state)
		return nil, fmt.Errorf("failed to open table store: %w", err)
	}
	if err := ts.Load(ctx, table); err != nil {
		ts.Close()
		m.reset(state)
		return nil, fmt.Errorf("failed to load table: %w", err)
	}
	m.checkSummary(ctx, id, ts, table)

	report, err := runPipeline(ctx, ts, column)
	if err != nil {
		ts.Close()
		m.reset(state)
		return nil, err
	}

	sess := state.Session
	sess.Status = models.SessionStatusLoaded
	sess.Message = ""
	sess.File = info
	sess.Preview = preview
	sess.Columns = dataset.Columns(table)
	sess.SelectedColumn = column
	sess.IndexedRows = table.Len()
	sess.DroppedRows = table.DroppedRows
	sess.DuplicateYears = table.DuplicateYears
	sess.FirstYear, sess.LastYear, _ = dataset.YearSpan(table)
	sess.UpdatedAt = time.Now()
	state.Table = ts
	state.Report = report

	if table.DroppedRows > 0 {
		m.log.Infof("[%s] dropped %d rows without a numeric year", short(id), table.DroppedRows)
	}
	if len(table.DuplicateYears) > 0 {
		m.log.Warnf("[%s] duplicate years kept: %v", short(id), table.DuplicateYears)
	}
	m.log.Infof("[%s] loaded %d rows, %d columns, selected %q in %v",
		short(id), table.Len(), len(table.Columns), column, time.Since(start))
	m.touch(id)

	return state.view(), nil
}

// File returns the metadata of the session's current upload.
func (m *Manager) File(id string) (*models.FileInfo, error) {
	state, ok := m.get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	state.mu.RLock()
	defer state.mu.RUnlock()
	if state.deleted {
		return nil, ErrSessionNotFound
	}
	if state.FileID == "" {
		return nil, ErrNoFile
	}
	return m.files.Get(state.FileID)
}

// Uploads returns how many uploads are held in memory across all sessions.
func (m *Manager) Uploads() int {
	files, err := m.files.List(0)
	if err != nil {
		m.log.Warnf("listing uploads: %v", err)
		return 0
	}
	return len(files)
}

// SelectColumn re-runs the pipeline on another column of the loaded table.
func (m *Manager) SelectColumn(ctx context.Context, id, column string) (*models.AnalysisSession, error) {
	state, ok := m.get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.deleted {
		return nil, ErrSessionNotFound
	}
	if state.Table == nil {
		return nil, ErrNoFile
	}

	report, err := runPipeline(ctx, state.Table, column)
	if err != nil {
		return nil, err
	}

	state.Report = report
	state.Session.SelectedColumn = column
	state.Session.UpdatedAt = time.Now()
	m.touch(id)
	m.log.Infof("[%s] selected %q", short(id), column)

	return state.view(), nil
}

// Delete closes a session and frees its table and upload.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	state, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	m.close(state)
	m.log.Infof("[%s] deleted", short(id))
	return nil
}

// Close deletes every session. Used on shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	states := make([]*State, 0, len(m.sessions))
	for id, state := range m.sessions {
		states = append(states, state)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, state := range states {
		m.close(state)
	}
	m.log.Infof("closed %d sessions", len(states))
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// TouchSession marks a session as active.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.lastAccessed = time.Now()
	return true
}

// CleanupOldSessions removes sessions idle for longer than maxAge. Sessions
// used within SessionKeepAliveWindow are always kept.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	if maxAge < SessionKeepAliveWindow {
		maxAge = SessionKeepAliveWindow
	}
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*State
	for id, state := range m.sessions {
		if state.lastAccessed.Before(cutoff) {
			expired = append(expired, state)
			delete(m.sessions, id)
			m.log.Infof("[%s] expired (idle %s)", short(id), time.Since(state.lastAccessed).Round(time.Second))
		}
	}
	m.mu.Unlock()

	for _, state := range expired {
		m.close(state)
	}
}

// evictIfNeeded drops the least recently used sessions to make room for one more.
func (m *Manager) evictIfNeeded() {
	m.mu.Lock()
	if len(m.sessions) < m.maxSessions {
		m.mu.Unlock()
		return
	}

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.sessions[ids[i]].lastAccessed.Before(m.sessions[ids[j]].lastAccessed)
	})

	toFree := len(m.sessions) - m.maxSessions + 1
	evicted := make([]*State, 0, toFree)
	for _, id := range ids[:toFree] {
		evicted = append(evicted, m.sessions[id])
		delete(m.sessions, id)
		m.log.Infof("[%s] evicted to stay under %d sessions", short(id), m.maxSessions)
	}
	m.mu.Unlock()

	for _, state := range evicted {
		m.close(state)
	}
}

func (m *Manager) get(id string) (*State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	return state, ok
}

func (m *Manager) touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.sessions[id]; ok {
		state.lastAccessed = time.Now()
	}
}

// close marks a removed session deleted and releases its resources.
func (m *Manager) close(state *State) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.deleted = true
	m.reset(state)
}

// reset returns a session to awaiting-file. Caller holds state.mu.
func (m *Manager) reset(state *State) {
	if state.Table != nil {
		if err := state.Table.Close(); err != nil {
			m.log.Warnf("[%s] failed to close table: %v", short(state.Session.ID), err)
		}
		state.Table = nil
	}
	if state.FileID != "" {
		if err := m.files.Delete(state.FileID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			m.log.Warnf("[%s] failed to delete upload: %v", short(state.Session.ID), err)
		}
		state.FileID = ""
	}
	state.Report = nil

	fresh := models.NewAnalysisSession(state.Session.ID)
	fresh.CreatedAt = state.Session.CreatedAt
	state.Session = fresh
}

func (m *Manager) parseFile(fileID string) (*models.RawTable, error) {
	rc, err := m.files.Open(fileID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, sniffSize)
	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	p, err := m.registry.FindParser(head)
	if err != nil {
		return nil, err
	}
	return p.Parse(br)
}

// checkSummary compares what the store reports with the table it was given.
func (m *Manager) checkSummary(ctx context.Context, id string, ts TableStore, table *models.YearTable) {
	s, ok := ts.(summarizer)
	if !ok {
		return
	}
	sum, err := s.Summary(ctx)
	if err != nil {
		m.log.Warnf("[%s] table summary failed: %v", short(id), err)
		return
	}
	if sum.Rows != table.Len() {
		m.log.Warnf("[%s] table store holds %d rows, expected %d", short(id), sum.Rows, table.Len())
		return
	}
	m.log.Debugf("[%s] table store: %d rows, years %d-%d", short(id), sum.Rows, sum.FirstYear, sum.LastYear)
}

// runPipeline selects column from the table store and runs the analyzers.
func runPipeline(ctx context.Context, ts TableStore, column string) (*models.Report, error) {
	cells, err := ts.Cells(ctx, column)
	if err != nil {
		if errors.Is(err, dataset.ErrUnknownColumn) {
			return nil, &InputError{Err: err}
		}
		return nil, fmt.Errorf("failed to read column %q: %w", column, err)
	}
	return analysis.Run(dataset.CoerceSeries(column, cells)), nil
}

// view returns a copy that is safe to hand out. Caller holds state.mu.
func (s *State) view() *models.AnalysisSession {
	v := *s.Session
	v.Columns = append([]string(nil), s.Session.Columns...)
	v.DuplicateYears = append([]int(nil), s.Session.DuplicateYears...)
	return &v
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
