package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"docflow/internal/models"
	"docflow/internal/ocr"
	"docflow/internal/repository"

	"go.uber.org/zap"
)

const (
	aliceEmail = "alice@example.com"
	bobEmail   = "bob@example.com"
)

// memTable is an in-memory stand-in for a repository keyed by BIGSERIAL ids.
type memTable[T any] struct {
	mu        sync.Mutex
	rows      map[int64]T
	nextID    int64
	saves     int
	saveErr   error
	deleteErr error
	idOf      func(*T) *int64
}

func newMemTable[T any](idOf func(*T) *int64) *memTable[T] {
	return &memTable[T]{rows: map[int64]T{}, idOf: idOf}
}

func (m *memTable[T]) GetByID(_ context.Context, id int64) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (m *memTable[T]) Save(_ context.Context, row *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	id := m.idOf(row)
	if *id == 0 {
		m.nextID++
		*id = m.nextID
	} else if _, ok := m.rows[*id]; !ok {
		return repository.ErrNotFound
	}
	m.saves++
	m.rows[*id] = *row
	return nil
}

func (m *memTable[T]) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memTable[T]) list(keep func(*T) bool) []*T {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []*T{}
	for _, id := range ids {
		row := m.rows[id]
		if keep(&row) {
			out = append(out, &row)
		}
	}
	return out
}

func (m *memTable[T]) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// insert stores row as-is, assigning an id when it has none.
func (m *memTable[T]) insert(t *testing.T, row *T) {
	t.Helper()
	if err := m.Save(context.Background(), row); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

type fakeFiles struct {
	*memTable[models.IncomingFile]
	statuses []models.DocumentStatus
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{memTable: newMemTable(func(f *models.IncomingFile) *int64 { return &f.ID })}
}

func (f *fakeFiles) Save(ctx context.Context, file *models.IncomingFile) error {
	if err := f.memTable.Save(ctx, file); err != nil {
		return err
	}
	f.statuses = append(f.statuses, file.Status)
	return nil
}

func (f *fakeFiles) ListByStatus(_ context.Context, status models.DocumentStatus) ([]*models.IncomingFile, error) {
	return f.list(func(file *models.IncomingFile) bool { return file.Status == status }), nil
}

func (f *fakeFiles) ListByUserIDAndStatus(_ context.Context, userID int64, status models.DocumentStatus) ([]*models.IncomingFile, error) {
	return f.list(func(file *models.IncomingFile) bool { return file.UserID == userID && file.Status == status }), nil
}

type fakeBills struct {
	*memTable[models.Bill]
}

func newFakeBills() *fakeBills {
	return &fakeBills{newMemTable(func(b *models.Bill) *int64 { return &b.ID })}
}

type fakeReceipts struct {
	*memTable[models.Receipt]
}

func newFakeReceipts() *fakeReceipts {
	return &fakeReceipts{newMemTable(func(r *models.Receipt) *int64 { return &r.ID })}
}

type fakeAttempts struct {
	*memTable[models.OCRAttempt]
	copyErrFor map[int64]error
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{
		memTable:   newMemTable(func(a *models.OCRAttempt) *int64 { return &a.ID }),
		copyErrFor: map[int64]error{},
	}
}

func (f *fakeAttempts) Create(ctx context.Context, attempt *models.OCRAttempt) error {
	attempt.ID = 0
	return f.memTable.Save(ctx, attempt)
}

func (f *fakeAttempts) UpdateStatus(ctx context.Context, attempt *models.OCRAttempt) error {
	return f.memTable.Save(ctx, attempt)
}

func (f *fakeAttempts) ListBySubject(_ context.Context, subject models.EntityRef, userID int64) ([]*models.OCRAttempt, error) {
	return f.list(func(a *models.OCRAttempt) bool {
		return a.Subject() == subject && a.UserID == userID
	}), nil
}

func (f *fakeAttempts) ListByUserID(_ context.Context, userID int64) ([]*models.OCRAttempt, error) {
	return f.list(func(a *models.OCRAttempt) bool { return a.UserID == userID }), nil
}

func (f *fakeAttempts) CopySubject(ctx context.Context, from, to models.EntityRef, userID int64) (int64, error) {
	if err := f.copyErrFor[from.ID]; err != nil {
		return 0, err
	}
	source, _ := f.ListBySubject(ctx, from, userID)
	for _, a := range source {
		clone := *a
		clone.ID = 0
		clone.EntityType = to.Type
		clone.EntityID = to.ID
		if err := f.memTable.Save(ctx, &clone); err != nil {
			return 0, err
		}
	}
	return int64(len(source)), nil
}

func (f *fakeAttempts) DeleteBySubject(_ context.Context, subject models.EntityRef) (int64, error) {
	victims := f.list(func(a *models.OCRAttempt) bool { return a.Subject() == subject })
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range victims {
		delete(f.rows, a.ID)
	}
	return int64(len(victims)), nil
}

func (f *fakeAttempts) forSubject(subject models.EntityRef) []*models.OCRAttempt {
	return f.list(func(a *models.OCRAttempt) bool { return a.Subject() == subject })
}

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	lookups int
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byEmail: map[string]*models.User{}}
	for _, u := range users {
		f.byEmail[strings.ToLower(u.Email)] = u
	}
	return f
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	u, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

// fakeTx runs fn inline and counts transactions.
type fakeTx struct {
	runs int
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.runs++
	return fn(ctx)
}

type fakeEngine struct {
	name      string
	available bool
	result    *ocr.Result
	err       error
	panicMsg  string
	delay     time.Duration
	calls     int
}

func (e *fakeEngine) Name() string { return e.name }

func (e *fakeEngine) IsAvailable(context.Context) bool { return e.available }

func (e *fakeEngine) ProcessFile(ctx context.Context, _ string) (*ocr.Result, error) {
	e.calls++
	if e.panicMsg != "" {
		panic(e.panicMsg)
	}
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return e.result, e.err
}

func successResult(amount float64, provider string) *ocr.Result {
	raw := `{"engine":"fake"}`
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return &ocr.Result{
		Success:           true,
		RawJSON:           &raw,
		ExtractedAmount:   &amount,
		ExtractedDate:     &date,
		ExtractedProvider: &provider,
	}
}

// harness wires every service against in-memory stores. Alice is user 1,
// Bob is user 2.
type harness struct {
	users    *fakeUsers
	files    *fakeFiles
	bills    *fakeBills
	receipts *fakeReceipts
	attempts *fakeAttempts
	tx       *fakeTx

	resolver   *UserResolver
	attemptSvc *OCRAttemptService
	ocrSvc     *OCRService
	incoming   *IncomingFileOCRService
	conversion *EntityConversionService
	dispatch   *FileDispatchService
}

func newHarness(t *testing.T, engines ...ocr.Engine) *harness {
	t.Helper()
	logger := zap.NewNop()

	h := &harness{
		users: newFakeUsers(
			&models.User{ID: 1, Username: "alice", Email: aliceEmail},
			&models.User{ID: 2, Username: "bob", Email: bobEmail},
		),
		files:    newFakeFiles(),
		bills:    newFakeBills(),
		receipts: newFakeReceipts(),
		attempts: newFakeAttempts(),
		tx:       &fakeTx{},
	}

	h.resolver = NewUserResolver(h.users, 16, time.Minute, logger)
	h.attemptSvc = NewOCRAttemptService(h.attempts, h.resolver, logger)
	h.ocrSvc = NewOCRService(engines, h.attemptSvc, time.Second, logger)
	h.incoming = NewIncomingFileOCRService(h.files, h.ocrSvc, h.resolver, "uploads", logger)
	h.conversion = NewEntityConversionService(h.tx, h.files, h.bills, h.receipts, h.attemptSvc, h.resolver, logger)
	h.dispatch = NewFileDispatchService(h.tx, h.files, h.bills, h.attemptSvc, h.resolver, logger)

	return h
}

func (h *harness) seedFile(t *testing.T, userID int64, filename string) *models.IncomingFile {
	t.Helper()
	file := &models.IncomingFile{
		UserID:     userID,
		Filename:   filename,
		FilePath:   "2024/03/" + filename,
		UploadDate: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Status:     models.StatusPending,
	}
	h.files.insert(t, file)
	h.files.statuses = nil
	return file
}

func (h *harness) seedAttempt(t *testing.T, subject models.EntityRef, userID int64, engine string, status models.OCRProcessingStatus) {
	t.Helper()
	h.attempts.insert(t, &models.OCRAttempt{
		EntityType:       subject.Type,
		EntityID:         subject.ID,
		UserID:           userID,
		AttemptDate:      time.Now(),
		OCREngine:        engine,
		ProcessingStatus: status,
	})
}

func assertNoOpenAttempts(t *testing.T, attempts *fakeAttempts) {
	t.Helper()
	open := attempts.list(func(a *models.OCRAttempt) bool {
		return a.ProcessingStatus == models.OCRStatusInProgress
	})
	if len(open) != 0 {
		t.Errorf("%d attempts left IN_PROGRESS", len(open))
	}
}

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }
