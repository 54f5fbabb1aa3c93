package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewave/hospital-concierge/pkg/logging"
)

func TestLogInsertsEntry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs(pgxmock.AnyArg(), "user-1", "concierge.turn", "chat_turns", "sess-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock, logging.New("error"))
	err = svc.Log(context.Background(), Entry{
		ActorUserID: "user-1",
		Action:      "concierge.turn",
		EntityTable: "chat_turns",
		EntityID:    "sess-1",
		Metadata:    json.RawMessage(`{"track":"acne"}`),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogWrapsInsertError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnError(errors.New("connection refused"))

	svc := NewService(mock, logging.New("error"))
	err = svc.Log(context.Background(), Entry{Action: "concierge.turn"})
	assert.ErrorContains(t, err, "audit: insert failed")
}

// recordingDB lets tests observe the async write without a real pool.
type recordingDB struct {
	mu    sync.Mutex
	calls int
	err   error
	done  chan struct{}
}

func (r *recordingDB) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	select {
	case r.done <- struct{}{}:
	default:
	}
	return pgconn.NewCommandTag("INSERT 0 1"), r.err
}

func TestLogAsyncNeverSurfacesErrors(t *testing.T) {
	db := &recordingDB{err: errors.New("boom"), done: make(chan struct{}, 1)}
	svc := NewService(db, logging.New("error"))

	// Must not panic or block, even though the insert fails.
	svc.LogAsync(context.Background(), Entry{Action: "concierge.turn"})

	select {
	case <-db.done:
	case <-time.After(2 * time.Second):
		t.Fatal("async audit write never ran")
	}
}

func TestLogAsyncReportsDrops(t *testing.T) {
	db := &recordingDB{err: errors.New("boom"), done: make(chan struct{}, 1)}
	svc := NewService(db, logging.New("error"))

	dropped := make(chan struct{}, 1)
	svc.OnDrop(func() { dropped <- struct{}{} })

	svc.LogAsync(context.Background(), Entry{Action: "concierge.turn"})

	select {
	case <-dropped:
	case <-time.After(2 * time.Second):
		t.Fatal("drop hook never fired")
	}
}

func TestLogAsyncSurvivesCancelledRequest(t *testing.T) {
	db := &recordingDB{done: make(chan struct{}, 1)}
	svc := NewService(db, logging.New("error"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // request already finished
	svc.LogAsync(ctx, Entry{Action: "concierge.turn"})

	select {
	case <-db.done:
	case <-time.After(2 * time.Second):
		t.Fatal("async audit write should run despite cancelled request context")
	}
}

func TestNilServiceIsSafe(t *testing.T) {
	var svc *Service
	svc.LogAsync(context.Background(), Entry{Action: "noop"})
	assert.NoError(t, svc.Log(context.Background(), Entry{Action: "noop"}))
}
