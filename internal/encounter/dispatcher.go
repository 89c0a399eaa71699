package encounter

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/drcloud/assistant/internal/logging"
	"github.com/drcloud/assistant/internal/metrics"
)

// DefaultCapabilityTimeout bounds a single capability invocation.
const DefaultCapabilityTimeout = 60 * time.Second

// Dispatcher invokes the applicable capabilities for a turn.
// Independent capabilities run concurrently, each with its own timeout;
// one capability's failure or timeout never blocks a sibling. A
// declared dependency sequences the dependent after its prerequisite
// and hands it the prerequisite's output.
type Dispatcher struct {
	regs     []Registration
	timeout  time.Duration
	notifier Notifier
	logger   *logging.Logger
}

// NewDispatcher creates a dispatcher over the given registrations. A
// zero timeout falls back to DefaultCapabilityTimeout; a nil notifier
// falls back to the log notifier.
func NewDispatcher(regs []Registration, timeout time.Duration, notifier Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultCapabilityTimeout
	}
	if notifier == nil {
		notifier = NewLogNotifier()
	}
	return &Dispatcher{
		regs:     regs,
		timeout:  timeout,
		notifier: notifier,
		logger:   logging.GetLogger("encounter.dispatcher"),
	}
}

// Names returns the registered capability names in registration order.
// Aggregation uses this to keep responses deterministic.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.regs))
	for _, reg := range d.regs {
		names = append(names, reg.Capability.Name())
	}
	return names
}

// Dispatch runs every applicable capability for the turn and records
// each outcome on the encounter. It never returns an error: failures
// become {status: failed} audit entries and processing continues.
func (d *Dispatcher) Dispatch(ctx context.Context, enc *Encounter, in *TurnInput) map[string]CapabilityResult {
	done := make(map[string]CapabilityResult)

	var pending []Registration
	for _, reg := range d.regs {
		name := reg.Capability.Name()
		if reg.Applies != nil && !reg.Applies(in) {
			res := CapabilityResult{Status: StatusSkipped}
			done[name] = res
			enc.recordResult(name, res)
			metrics.CapabilityInvocations.WithLabelValues(name, string(StatusSkipped)).Inc()
			continue
		}
		pending = append(pending, reg)
	}

	// Capabilities are released in waves: a wave holds everything
	// whose dependencies have already settled.
	for len(pending) > 0 {
		var wave, rest []Registration
		for _, reg := range pending {
			if d.depsSettled(reg, done) {
				wave = append(wave, reg)
			} else {
				rest = append(rest, reg)
			}
		}

		if len(wave) == 0 {
			// Remaining registrations wait on something that will
			// never settle (unregistered dependency or a cycle).
			for _, reg := range rest {
				name := reg.Capability.Name()
				res := CapabilityResult{
					Status: StatusFailed,
					Error:  fmt.Sprintf("unresolved dependency %v", reg.DependsOn),
				}
				done[name] = res
				enc.recordResult(name, res)
				metrics.CapabilityInvocations.WithLabelValues(name, string(StatusFailed)).Inc()
			}
			break
		}

		var g errgroup.Group
		waveResults := make([]CapabilityResult, len(wave))
		for i, reg := range wave {
			if dep, ok := d.failedDependency(reg, done); ok {
				waveResults[i] = CapabilityResult{
					Status: StatusSkipped,
					Error:  fmt.Sprintf("dependency %s did not succeed", dep),
				}
				continue
			}

			prior := make(map[string]string, len(reg.DependsOn))
			for _, dep := range reg.DependsOn {
				prior[dep] = done[dep].Output
			}

			i, reg := i, reg
			g.Go(func() error {
				waveResults[i] = d.InvokeOne(ctx, enc, reg.Capability, in.withPrior(prior))
				return nil
			})
		}
		_ = g.Wait()

		for i, reg := range wave {
			name := reg.Capability.Name()
			done[name] = waveResults[i]
			if waveResults[i].Status == StatusSkipped {
				enc.recordResult(name, waveResults[i])
				metrics.CapabilityInvocations.WithLabelValues(name, string(StatusSkipped)).Inc()
			}
		}

		pending = rest
	}

	return done
}

func (d *Dispatcher) depsSettled(reg Registration, done map[string]CapabilityResult) bool {
	for _, dep := range reg.DependsOn {
		if _, ok := done[dep]; !ok {
			return false
		}
	}
	return true
}

func (d *Dispatcher) failedDependency(reg Registration, done map[string]CapabilityResult) (string, bool) {
	for _, dep := range reg.DependsOn {
		if done[dep].Status != StatusSuccess {
			return dep, true
		}
	}
	return "", false
}

// InvokeOne runs a single capability with timeout and panic recovery,
// records the outcome on the encounter, and fires the emergency
// notifier the first time a red flag appears. The router also calls
// this directly for the documentation capability.
func (d *Dispatcher) InvokeOne(ctx context.Context, enc *Encounter, c Capability, in *TurnInput) CapabilityResult {
	name := c.Name()
	start := time.Now()

	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type outcome struct {
		res *Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("capability panic: %v", r)}
			}
		}()
		res, err := c.Invoke(cctx, in)
		ch <- outcome{res: res, err: err}
	}()

	var result CapabilityResult
	select {
	case o := <-ch:
		switch {
		case o.err != nil:
			result = CapabilityResult{Status: StatusFailed, Error: o.err.Error()}
		case o.res == nil:
			result = CapabilityResult{Status: StatusFailed, Error: "capability returned no result"}
		default:
			result = CapabilityResult{Status: StatusSuccess, Output: o.res.Output}
			if o.res.Emergency {
				d.raiseEmergency(ctx, enc, name, o.res.EmergencyReason)
			}
		}
	case <-cctx.Done():
		result = CapabilityResult{Status: StatusFailed, Error: cctx.Err().Error()}
	}

	enc.recordResult(name, result)
	metrics.CapabilityInvocations.WithLabelValues(name, string(result.Status)).Inc()

	if result.Status == StatusFailed {
		d.logger.WarnWithFields("capability failed",
			logging.Field("capability", name),
			logging.Field("error", result.Error),
			logging.Field("duration", time.Since(start).String()),
		)
	} else {
		d.logger.DebugWithFields("capability completed",
			logging.Field("capability", name),
			logging.Field("duration", time.Since(start).String()),
		)
	}

	return result
}

func (d *Dispatcher) raiseEmergency(ctx context.Context, enc *Encounter, capability, reason string) {
	if !enc.flagEmergency() {
		return
	}
	metrics.EmergencyNotifications.Inc()
	if err := d.notifier.Notify(ctx, enc.UserID(), enc.SessionID(), reason); err != nil {
		d.logger.ErrorWithErr("emergency notification failed for capability "+capability, err)
	}
}
