package scenario

import (
	"context"
	"fmt"
	"time"

	"e2e_harness/application/engine"
	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"

	"github.com/sirupsen/logrus"
)

type Runner struct {
	engine *engine.Engine
	logger *logrus.Logger
}

// NewRunner - creates new scenario runner
func NewRunner(eng *engine.Engine, logger *logrus.Logger) *Runner {
	return &Runner{
		engine: eng,
		logger: logger,
	}
}

// Run - executes scenario steps in declared order against page
func (r *Runner) Run(ctx context.Context, sc Scenario, page interfaces.Page, params Params) entities.ScenarioReport {
	return r.run(ctx, logrus.NewEntry(r.logger), sc, page, params)
}

func (r *Runner) run(ctx context.Context, log *logrus.Entry, sc Scenario, page interfaces.Page, params Params) entities.ScenarioReport {
	log = log.WithField("scenario", sc.Name)
	report := entities.ScenarioReport{
		Name:  sc.Name,
		Tag:   sc.Tag,
		Steps: make([]entities.StepResult, 0, len(sc.Steps)),
	}

	if err := sc.Validate(); err != nil {
		report.Error = err.Error()
		log.Errorf("Invalid scenario: %v", err)
		return report
	}

	env := &Env{
		Page:   page,
		Engine: r.engine,
		Params: params,
	}
	outcomes := make(map[string]entities.Outcome, len(sc.Steps))

	for _, step := range sc.Steps {
		stepLog := log.WithField("step", step.Name)

		if ctx.Err() != nil {
			result := entities.StepResult{
				Name:          step.Name,
				Outcome:       entities.OutcomeSkipped,
				FailureDetail: fmt.Sprintf("scenario canceled: %v", ctx.Err()),
			}
			outcomes[step.Name] = result.Outcome
			report.Steps = append(report.Steps, result)
			continue
		}

		if dep := failedDependency(step, outcomes); dep != "" {
			result := entities.StepResult{
				Name:          step.Name,
				Outcome:       entities.OutcomeSkipped,
				FailureDetail: fmt.Sprintf("depends on %q, which did not pass", dep),
			}
			outcomes[step.Name] = result.Outcome
			report.Steps = append(report.Steps, result)
			stepLog.Warn("Step skipped")
			continue
		}

		env.Logger = stepLog
		start := time.Now()
		err := step.Run(ctx, env)
		result := entities.StepResult{
			Name:    step.Name,
			Outcome: entities.OutcomePass,
			Elapsed: time.Since(start),
		}
		if err != nil {
			result.Outcome = entities.OutcomeFail
			result.FailureDetail = err.Error()
			stepLog.WithField("elapsed", result.Elapsed.Round(time.Millisecond)).Errorf("Step failed: %v", err)
		} else {
			stepLog.WithField("elapsed", result.Elapsed.Round(time.Millisecond)).Info("Step passed")
		}
		outcomes[step.Name] = result.Outcome
		report.Steps = append(report.Steps, result)
	}

	report.Passed = true
	for _, s := range report.Steps {
		if s.Outcome != entities.OutcomePass {
			report.Passed = false
			break
		}
	}
	return report
}

// failedDependency returns the first dependency of step that did not pass
func failedDependency(step Step, outcomes map[string]entities.Outcome) string {
	for _, dep := range step.DependsOn {
		if outcomes[dep] != entities.OutcomePass {
			return dep
		}
	}
	return ""
}
