package reminder

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"agendly/internal/model"
	"agendly/internal/notify"
)

// MaxTimerDelay is the longest delay a single one-shot timer is allowed to
// carry: 2^31-1 milliseconds, about 24.8 days. Appointments further out than
// that get no live timer and are owned by the periodic re-scan until they
// come within range. The ceiling is a platform constraint of 32-bit
// millisecond timers and is treated as a first-class branch, not an
// incidental limit.
const MaxTimerDelay = time.Duration(math.MaxInt32) * time.Millisecond

// Store is the persisted appointment state the coordinator rebuilds itself
// from. MarkReminded must be an atomic claim: exactly one caller ever gets
// true per appointment.
type Store interface {
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	UpcomingAppointments(ctx context.Context, now, until time.Time) ([]model.Appointment, error)
	MarkReminded(ctx context.Context, appointmentID string) (bool, error)
	ClearReminder(ctx context.Context, appointmentID string) error
}

type Config struct {
	// Offset before the appointment start at which the reminder fires.
	Offset time.Duration
	// RescanEvery is the re-scan cadence.
	RescanEvery time.Duration
	// InitialDelay is the first re-scan after startup, short enough to catch
	// near-term appointments before the first full cycle.
	InitialDelay time.Duration
}

// Coordinator owns every live reminder timer. It is purely in-memory: a
// restart loses all handles, and the unconditional re-scan rebuilds them
// from storage. State per appointment is either a live timer in the map, or
// nothing (pending re-scan, already fired, or no reminder due).
type Coordinator struct {
	store      Store
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	cfg        Config

	mu     sync.Mutex
	timers map[string]*time.Timer

	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

func NewCoordinator(store Store, dispatcher notify.Dispatcher, logger *slog.Logger, cfg Config) *Coordinator {
	if cfg.Offset <= 0 {
		cfg.Offset = 30 * time.Minute
	}
	if cfg.RescanEvery <= 0 {
		cfg.RescanEvery = 20 * 24 * time.Hour
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 24 * time.Hour
	}
	return &Coordinator{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		timers:     make(map[string]*time.Timer),
		now:        time.Now,
	}
}

// Start launches the re-scan loop: once immediately (restart recovery), once
// after InitialDelay, then on the RescanEvery cadence.
func (c *Coordinator) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.run(ctx)
}

// Stop cancels the re-scan loop and every live timer.
func (c *Coordinator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}

func (c *Coordinator) run(ctx context.Context) {
	defer c.wg.Done()

	c.rescan(ctx)

	initial := time.NewTimer(c.cfg.InitialDelay)
	defer initial.Stop()
	select {
	case <-ctx.Done():
		return
	case <-initial.C:
		c.rescan(ctx)
	}

	ticker := time.NewTicker(c.cfg.RescanEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.rescan(ctx)
		}
	}
}

// rescan re-applies scheduling to every still-upcoming appointment. It is
// deliberately unconditional: it never skips an appointment it "thinks" is
// already scheduled, because after a restart that belief would be wrong.
// Idempotence comes from the MarkReminded claim, not from skipping.
func (c *Coordinator) rescan(ctx context.Context) {
	now := c.now()
	until := now.Add(MaxTimerDelay)
	appts, err := c.store.UpcomingAppointments(ctx, now, until)
	if err != nil {
		c.logger.Error("reminder rescan failed", "err", err)
		return
	}
	for _, appt := range appts {
		c.Reschedule(appt)
	}
	c.logger.Info("reminder rescan complete", "appointments", len(appts))
}

// Reschedule retires any live timer for the appointment and computes a fresh
// one. Appointments whose reminder instant has passed get nothing; those
// beyond MaxTimerDelay are left for the re-scan to pick up once in range.
// Never returns an error: scheduling failures are logged and the next
// re-scan self-heals.
func (c *Coordinator) Reschedule(appt model.Appointment) {
	c.retire(appt.ID)
	if !appt.Status.Blocks() {
		return
	}

	fireAt := appt.StartTime.Add(-c.cfg.Offset)
	delay := fireAt.Sub(c.now())
	if delay <= 0 {
		return
	}
	if delay > MaxTimerDelay {
		c.logger.Debug("reminder beyond timer ceiling, deferred to rescan",
			"appointment_id", appt.ID, "fire_at", fireAt)
		return
	}

	id := appt.ID
	c.mu.Lock()
	c.timers[id] = time.AfterFunc(delay, func() { c.fire(id) })
	c.mu.Unlock()
}

// Cancel drops the appointment's reminder state entirely.
func (c *Coordinator) Cancel(appointmentID string) {
	c.retire(appointmentID)
}

func (c *Coordinator) retire(appointmentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[appointmentID]; ok {
		t.Stop()
		delete(c.timers, appointmentID)
	}
}

// fire runs on the timer goroutine. It re-reads the appointment so a move or
// cancellation that raced the timer is honored, claims the reminder, and
// only then invokes the trigger.
func (c *Coordinator) fire(appointmentID string) {
	c.mu.Lock()
	delete(c.timers, appointmentID)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	appt, err := c.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		c.logger.Error("reminder fire: appointment lookup failed",
			"appointment_id", appointmentID, "err", err)
		return
	}
	if !appt.Status.Blocks() {
		return
	}
	// The appointment may have been pushed later after this timer was armed.
	// Its reminder instant is then still ahead; leave it to the fresh timer
	// or the re-scan.
	if appt.StartTime.Add(-c.cfg.Offset).After(c.now()) {
		return
	}

	first, err := c.store.MarkReminded(ctx, appointmentID)
	if err != nil {
		c.logger.Error("reminder fire: claim failed", "appointment_id", appointmentID, "err", err)
		return
	}
	if !first {
		return
	}

	evt := notify.ReminderEvent{
		AppointmentID:   appt.ID,
		EstablishmentID: appt.EstablishmentID,
		StaffID:         appt.StaffID,
		ClientID:        appt.ClientID,
		ServiceID:       appt.ServiceID,
		StartTime:       appt.StartTime,
	}
	if err := c.dispatcher.ReminderDue(ctx, evt); err != nil {
		// Release the claim so the next fire or re-scan retries the
		// dispatch instead of treating the reminder as delivered.
		c.logger.Error("reminder dispatch failed", "appointment_id", appointmentID, "err", err)
		if clearErr := c.store.ClearReminder(ctx, appointmentID); clearErr != nil {
			c.logger.Error("reminder claim release failed",
				"appointment_id", appointmentID, "err", clearErr)
		}
		return
	}
	c.logger.Info("reminder fired", "appointment_id", appointmentID, "start_time", appt.StartTime)
}
