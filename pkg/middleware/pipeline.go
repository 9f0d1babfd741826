package middleware

import (
	"reflect"

	"github.com/aretw0/botflow/pkg/domain"
)

// Next continues the chain with the following stage.
type Next func(c *domain.Context) error

// Stage is one link of the pipeline. A stage that does not call next short-circuits the
// chain; code placed after next runs once every later stage has returned.
type Stage interface {
	Invoke(c *domain.Context, next Next) error
}

// StageFunc adapts a function to the Stage interface.
type StageFunc func(c *domain.Context, next Next) error

// Invoke calls f.
func (f StageFunc) Invoke(c *domain.Context, next Next) error {
	return f(c, next)
}

// Pipeline is an ordered list of stages. Add and Remove are registration-time operations
// and must not race with Invoke.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline with the given stages in order.
func NewPipeline(stages ...Stage) *Pipeline {
	p := &Pipeline{}
	for _, s := range stages {
		p.Add(s)
	}
	return p
}

// Add appends a stage. Nil stages are ignored.
func (p *Pipeline) Add(s Stage) *Pipeline {
	if s != nil {
		p.stages = append(p.stages, s)
	}
	return p
}

// Remove deletes the first stage equal to s. Stages that cannot be compared, such as
// StageFunc values or structs holding a func in an interface field, never match.
func (p *Pipeline) Remove(s Stage) bool {
	if s == nil || !reflect.TypeOf(s).Comparable() {
		return false
	}
	for i, existing := range p.stages {
		if reflect.TypeOf(existing) != reflect.TypeOf(s) {
			continue
		}
		if sameStage(existing, s) {
			p.stages = append(p.stages[:i], p.stages[i+1:]...)
			return true
		}
	}
	return false
}

// sameStage reports a == b. A comparable static type can still hold an uncomparable
// value in an interface field, which makes == panic at run time.
func sameStage(a, b Stage) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Invoke runs c through every stage in order. An empty pipeline does nothing.
func (p *Pipeline) Invoke(c *domain.Context) error {
	return p.invokeAt(0, c)
}

func (p *Pipeline) invokeAt(i int, c *domain.Context) error {
	if i >= len(p.stages) {
		return nil
	}
	return p.stages[i].Invoke(c, func(c *domain.Context) error {
		return p.invokeAt(i+1, c)
	})
}
