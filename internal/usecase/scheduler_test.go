package usecase

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bodybest/backend/internal/domain"
)

// applyRecorder collects applied resolutions
type applyRecorder struct {
	mu      sync.Mutex
	applied []*domain.Resolution
}

func (a *applyRecorder) apply(res *domain.Resolution) {
	a.mu.Lock()
	a.applied = append(a.applied, res)
	a.mu.Unlock()
}

func (a *applyRecorder) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}

func (a *applyRecorder) last() *domain.Resolution {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.applied) == 0 {
		return nil
	}
	return a.applied[len(a.applied)-1]
}

func TestScheduler(t *testing.T) {
	t.Run("rapid edits produce a single remote call", func(t *testing.T) {
		est := &fakeEstimator{profile: domain.MacroProfile{Calories: 200}}
		r := newTestResolver(est)
		s := NewScheduler(r, 20*time.Millisecond, zap.NewNop())
		rec := &applyRecorder{}

		for _, text := range []string{"1", "1 п", "1 порция"} {
			s.Schedule("meal-qty", domain.ResolveRequest{
				Description: "непознат скаридов тако",
				Quantity:    domain.QuantitySignal{Text: text},
			}, rec.apply)
			time.Sleep(2 * time.Millisecond)
		}

		time.Sleep(150 * time.Millisecond)

		if got := est.callCount(); got != 1 {
			t.Errorf("estimator called %d times, want 1", got)
		}
		if rec.count() != 1 {
			t.Fatalf("applied %d resolutions, want 1", rec.count())
		}
		if res := rec.last(); res.Source != domain.SourceRemote || res.Profile.Calories != 200 {
			t.Errorf("applied %+v, want remote 200 kcal", res)
		}
	})

	t.Run("synchronous local hit applies immediately", func(t *testing.T) {
		est := &fakeEstimator{}
		r := newTestResolver(est)
		s := NewScheduler(r, 20*time.Millisecond, zap.NewNop())
		rec := &applyRecorder{}

		s.Schedule("meal-qty", domain.ResolveRequest{
			Description: "ябълка",
			Quantity:    domain.QuantitySignal{Text: "1 бр."},
		}, rec.apply)

		if rec.count() != 1 {
			t.Fatalf("applied %d resolutions, want immediate apply", rec.count())
		}
		if res := rec.last(); res.Source != domain.SourceLocal || res.Grams != 150 {
			t.Errorf("applied %+v, want local 150 g", res)
		}
		if s.Pending("meal-qty") {
			t.Error("expected no pending lookup after sync hit")
		}
		if est.callCount() != 0 {
			t.Errorf("estimator called %d times, want 0", est.callCount())
		}
	})

	t.Run("local hit abandons a pending remote lookup", func(t *testing.T) {
		est := &fakeEstimator{profile: domain.MacroProfile{Calories: 200}}
		r := newTestResolver(est)
		s := NewScheduler(r, 30*time.Millisecond, zap.NewNop())
		rec := &applyRecorder{}

		s.Schedule("meal-qty", domain.ResolveRequest{
			Description: "непознат скаридов тако",
			Quantity:    domain.QuantitySignal{Text: "1 порция"},
		}, rec.apply)
		if !s.Pending("meal-qty") {
			t.Fatal("expected a pending remote lookup")
		}

		s.Schedule("meal-qty", domain.ResolveRequest{
			Description: "ябълка",
			Quantity:    domain.QuantitySignal{Text: "1 бр."},
		}, rec.apply)

		time.Sleep(100 * time.Millisecond)

		if est.callCount() != 0 {
			t.Errorf("estimator called %d times, want 0", est.callCount())
		}
		if rec.count() != 1 {
			t.Fatalf("applied %d resolutions, want 1", rec.count())
		}
		if res := rec.last(); res.Source != domain.SourceLocal {
			t.Errorf("applied %+v, want the local hit", res)
		}
	})

	t.Run("cancel prevents apply", func(t *testing.T) {
		est := &fakeEstimator{}
		r := newTestResolver(est)
		s := NewScheduler(r, 20*time.Millisecond, zap.NewNop())
		rec := &applyRecorder{}

		s.Schedule("meal-qty", domain.ResolveRequest{
			Description: "непознат скаридов тако",
			Quantity:    domain.QuantitySignal{Text: "1 порция"},
		}, rec.apply)
		s.CancelPending("meal-qty")

		time.Sleep(80 * time.Millisecond)

		if rec.count() != 0 {
			t.Errorf("applied %d resolutions after cancel, want 0", rec.count())
		}
		if est.callCount() != 0 {
			t.Errorf("estimator called %d times, want 0", est.callCount())
		}
	})

	t.Run("stale in-flight result is not applied", func(t *testing.T) {
		est := &fakeEstimator{
			delay: 50 * time.Millisecond,
			byFood: map[string]domain.MacroProfile{
				"стара заявка": {Calories: 111},
				"нова заявка":  {Calories: 222},
			},
		}
		r := newTestResolver(est)
		s := NewScheduler(r, 10*time.Millisecond, zap.NewNop())
		rec := &applyRecorder{}

		s.Schedule("meal-qty", domain.ResolveRequest{
			Description: "стара заявка",
			Quantity:    domain.QuantitySignal{Text: "1 порция"},
		}, rec.apply)

		// Let the first lookup fire and hang in flight, then supersede it
		time.Sleep(25 * time.Millisecond)
		s.Schedule("meal-qty", domain.ResolveRequest{
			Description: "нова заявка",
			Quantity:    domain.QuantitySignal{Text: "1 порция"},
		}, rec.apply)

		time.Sleep(200 * time.Millisecond)

		if rec.count() != 1 {
			t.Fatalf("applied %d resolutions, want 1", rec.count())
		}
		if res := rec.last(); res.Profile.Calories != 222 {
			t.Errorf("applied %+v, want the superseding result", res)
		}

		// The stale result is still cached for future hits
		if _, ok := r.OverrideFor("стара заявка", domain.QuantitySignal{Text: "1 порция"}); !ok {
			t.Error("expected the stale result in the override cache")
		}
	})

	t.Run("distinct fields do not interfere", func(t *testing.T) {
		est := &fakeEstimator{profile: domain.MacroProfile{Calories: 100}}
		r := newTestResolver(est)
		s := NewScheduler(r, 10*time.Millisecond, zap.NewNop())
		recA, recB := &applyRecorder{}, &applyRecorder{}

		s.Schedule("field-a", domain.ResolveRequest{
			Description: "непозната храна а",
			Quantity:    domain.QuantitySignal{Text: "1 порция"},
		}, recA.apply)
		s.Schedule("field-b", domain.ResolveRequest{
			Description: "непозната храна б",
			Quantity:    domain.QuantitySignal{Text: "1 порция"},
		}, recB.apply)

		time.Sleep(100 * time.Millisecond)

		if est.callCount() != 2 {
			t.Errorf("estimator called %d times, want 2", est.callCount())
		}
		if recA.count() != 1 || recB.count() != 1 {
			t.Errorf("applied %d/%d, want 1/1", recA.count(), recB.count())
		}
	})
}
