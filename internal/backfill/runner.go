package backfill

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKey        = "backfill:lock"
	DefaultLockTTL = time.Hour

	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

var extendLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// Publisher is satisfied by *stream.Hub.
type Publisher interface {
	Publish(runID string, v any)
}

// Event is what subscribers of a run receive.
type Event struct {
	Type     string     `json:"type"`
	RunID    string     `json:"run_id"`
	Progress *Progress  `json:"progress,omitempty"`
	Result   *Result    `json:"result,omitempty"`
	Status   *RunStatus `json:"status,omitempty"`
	Error    string     `json:"error,omitempty"`
}

type RunStatus struct {
	RunID  string  `json:"run_id"`
	Status string  `json:"status"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Runner starts backfills in the background and allows one run at a time.
// With Redis the limit holds across every node sharing the instance.
type Runner struct {
	coord   *Coordinator
	pub     Publisher
	redis   *redis.Client
	lockTTL time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	runs    map[string]*RunStatus
}

func NewRunner(coord *Coordinator, pub Publisher, rdb *redis.Client) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		coord:   coord,
		pub:     pub,
		redis:   rdb,
		lockTTL: DefaultLockTTL,
		ctx:     ctx,
		cancel:  cancel,
		runs:    map[string]*RunStatus{},
	}
}

// Start launches a run and returns its ID, or ErrRunInProgress.
func (r *Runner) Start(ctx context.Context, force bool) (string, error) {
	runID := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return "", ErrRunInProgress
	}
	if r.redis != nil {
		ok, err := r.redis.SetNX(ctx, lockKey, runID, r.lockTTL).Result()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrRunInProgress
		}
	}

	r.running = true
	r.runs[runID] = &RunStatus{RunID: runID, Status: RunRunning}
	r.wg.Add(1)
	go r.run(runID, force)
	return runID, nil
}

func (r *Runner) run(runID string, force bool) {
	defer r.wg.Done()
	log.Printf("backfill: run %s started (force=%t)", runID, force)

	result, err := r.coord.ProcessAll(r.ctx, force, func(p Progress) {
		if p.Status == StatusSuccess || p.Status == StatusError {
			r.refreshLock(runID)
		}
		r.publish(Event{Type: "progress", RunID: runID, Progress: &p})
	})

	status := RunStatus{RunID: runID, Status: RunCompleted, Result: &result}
	event := Event{Type: "done", RunID: runID, Result: &result}
	if err != nil {
		log.Printf("backfill: run %s failed: %v", runID, err)
		status = RunStatus{RunID: runID, Status: RunFailed, Error: err.Error()}
		event = Event{Type: "failed", RunID: runID, Error: err.Error()}
	}

	if r.redis != nil {
		if err := releaseLock.Run(context.Background(), r.redis, []string{lockKey}, runID).Err(); err != nil {
			log.Printf("backfill: release lock for run %s: %v", runID, err)
		}
	}

	r.mu.Lock()
	r.runs[runID] = &status
	r.running = false
	r.mu.Unlock()

	r.publish(event)
}

// refreshLock pushes the lock expiry out by lockTTL while runID still owns it,
// so a run longer than one TTL keeps the lock.
func (r *Runner) refreshLock(runID string) {
	if r.redis == nil {
		return
	}
	err := extendLock.Run(r.ctx, r.redis, []string{lockKey}, runID, r.lockTTL.Milliseconds()).Err()
	if err != nil && r.ctx.Err() == nil {
		log.Printf("backfill: refresh lock for run %s: %v", runID, err)
	}
}

func (r *Runner) publish(e Event) {
	if r.pub != nil {
		r.pub.Publish(e.RunID, e)
	}
}

func (r *Runner) Status(runID string) (RunStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.runs[runID]
	if !ok {
		return RunStatus{}, false
	}
	return *s, true
}

// Snapshot is the "status" event a subscriber receives on connect.
func (r *Runner) Snapshot(runID string) (any, bool) {
	status, ok := r.Status(runID)
	if !ok {
		return nil, false
	}
	return Event{Type: "status", RunID: runID, Status: &status}, true
}

// Wait blocks until every started run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close cancels in-flight runs and waits for them to record their results.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}
