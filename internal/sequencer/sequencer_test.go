package sequencer_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/engine"
	"clipforge/internal/generate"
	"clipforge/internal/plan"
	"clipforge/internal/project"
	"clipforge/internal/sequencer"
	"clipforge/internal/services"
	"clipforge/internal/testsupport"
)

type fakeTransformer struct {
	mu          sync.Mutex
	loads       []string
	executes    int
	duration    float64
	failExecute error
}

func (f *fakeTransformer) Initialize(ctx context.Context) error { return nil }

func (f *fakeTransformer) LoadSource(ctx context.Context, path string) (engine.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, path)
	return engine.Source{Path: path, Duration: f.duration}, nil
}

func (f *fakeTransformer) Execute(ctx context.Context, command engine.Command) (engine.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failExecute != nil {
		return engine.Result{}, f.failExecute
	}
	f.executes++
	return engine.Result{
		OutputPath: fmt.Sprintf("edited-%d.mp4", f.executes),
		Duration:   f.duration,
	}, nil
}

func (f *fakeTransformer) loadedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.loads...)
}

type gatedTransformer struct {
	fakeTransformer
	gate chan struct{}
}

func (g *gatedTransformer) Execute(ctx context.Context, command engine.Command) (engine.Result, error) {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return engine.Result{}, ctx.Err()
	}
	return g.fakeTransformer.Execute(ctx, command)
}

type blockingGenerator struct {
	release chan struct{}
	output  project.Output
	fail    error
}

func (g *blockingGenerator) Generate(ctx context.Context, p *project.Project) (project.Output, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return project.Output{}, ctx.Err()
	}
	if g.fail != nil {
		return project.Output{}, g.fail
	}
	return g.output, nil
}

type failingGenerator struct{ message string }

func (g *failingGenerator) Generate(ctx context.Context, p *project.Project) (project.Output, error) {
	return project.Output{}, errors.New(g.message)
}

func newFixture(t *testing.T, gen generate.Generator, transformer sequencer.Transformer) (*config.Config, *project.Store, *sequencer.Sequencer) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if gen == nil {
		gen = generate.NewFromConfig(cfg)
	}
	if transformer == nil {
		transformer = &fakeTransformer{duration: 10}
	}
	seq := sequencer.New(cfg, store, transformer, gen, nil)
	t.Cleanup(seq.Close)
	return cfg, store, seq
}

func awaitJob(t *testing.T, seq *sequencer.Sequencer, jobID string) sequencer.Job {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := seq.Await(ctx, jobID)
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	return job
}

func TestGenerationLifecycle(t *testing.T) {
	_, store, seq := newFixture(t, nil, nil)
	ctx := context.Background()

	p := testsupport.NewProject(t, store, "Clip", project.Input{Kind: project.InputText, Content: "script"})

	job, ok, err := seq.SubmitGeneration(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("SubmitGeneration failed: ok=%v err=%v", ok, err)
	}
	finished := awaitJob(t, seq, job.ID)
	if finished.Status != sequencer.JobSucceeded {
		t.Fatalf("expected succeeded job, got %s (%s)", finished.Status, finished.Error)
	}

	loaded, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded.Status != project.StatusCompleted {
		t.Fatalf("expected completed project, got %s", loaded.Status)
	}
	if loaded.Output == nil || loaded.Output.VideoPath == "" {
		t.Fatalf("expected output handles, got %#v", loaded.Output)
	}
	if loaded.EditingData == nil {
		t.Fatal("expected editing data after completion")
	}
}

func TestGenerationFailureIsRetryable(t *testing.T) {
	_, store, seq := newFixture(t, &failingGenerator{message: "render exploded"}, nil)
	ctx := context.Background()

	p := testsupport.NewProject(t, store, "Clip", project.Input{Kind: project.InputText, Content: "script"})

	job, ok, err := seq.SubmitGeneration(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("SubmitGeneration failed: ok=%v err=%v", ok, err)
	}
	finished := awaitJob(t, seq, job.ID)
	if finished.Status != sequencer.JobFailed {
		t.Fatalf("expected failed job, got %s", finished.Status)
	}

	loaded, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded.Status != project.StatusFailed {
		t.Fatalf("expected failed project, got %s", loaded.Status)
	}
	if loaded.Output != nil {
		t.Fatal("failed project must not expose output")
	}
	if loaded.ErrorMessage != "render exploded" {
		t.Fatalf("unexpected error message %q", loaded.ErrorMessage)
	}

	retry, ok, err := seq.SubmitGeneration(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("retry SubmitGeneration failed: ok=%v err=%v", ok, err)
	}
	if retry.ID == job.ID {
		t.Fatal("expected a fresh job for the retry")
	}
}

func TestSubmitGenerationIsIdempotentWhileRunning(t *testing.T) {
	gen := &blockingGenerator{
		release: make(chan struct{}),
		output:  project.Output{VideoPath: "v.mp4", ThumbnailPath: "t.jpg", Duration: 10},
	}
	_, store, seq := newFixture(t, gen, nil)
	ctx := context.Background()

	p := testsupport.NewProject(t, store, "Clip", project.Input{Kind: project.InputText, Content: "script"})

	first, ok, err := seq.SubmitGeneration(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("SubmitGeneration failed: ok=%v err=%v", ok, err)
	}
	second, ok, err := seq.SubmitGeneration(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("second SubmitGeneration failed: ok=%v err=%v", ok, err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the active job back, got %s vs %s", second.ID, first.ID)
	}
	if jobs := seq.Jobs(p.ID); len(jobs) != 1 {
		t.Fatalf("expected exactly one job, got %d", len(jobs))
	}

	close(gen.release)
	awaitJob(t, seq, first.ID)

	_, ok, err = seq.SubmitGeneration(ctx, p.ID)
	if err != nil {
		t.Fatalf("SubmitGeneration on completed project errored: %v", err)
	}
	if ok {
		t.Fatal("expected no-op for completed project")
	}
}

func TestConcurrentStartsShareOneJob(t *testing.T) {
	gen := &blockingGenerator{
		release: make(chan struct{}),
		output:  project.Output{VideoPath: "v.mp4", ThumbnailPath: "t.jpg", Duration: 10},
	}
	_, store, seq := newFixture(t, gen, nil)
	ctx := context.Background()

	p := testsupport.NewProject(t, store, "Clip", project.Input{Kind: project.InputText, Content: "script"})

	const starters = 8
	var wg sync.WaitGroup
	ids := make([]string, starters)
	errs := make([]error, starters)
	for i := 0; i < starters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			job, ok, err := seq.SubmitGeneration(ctx, p.ID)
			if err == nil && !ok {
				err = errors.New("start treated as no-op")
			}
			ids[i] = job.ID
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("start %d failed: %v", i, err)
		}
	}
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("concurrent starts produced distinct jobs: %s vs %s", id, ids[0])
		}
	}
	if jobs := seq.Jobs(p.ID); len(jobs) != 1 {
		t.Fatalf("expected exactly one job, got %d", len(jobs))
	}

	close(gen.release)
	awaitJob(t, seq, ids[0])
}

func TestCloseDrainsInFlightGeneration(t *testing.T) {
	gen := &blockingGenerator{
		release: make(chan struct{}),
		output:  project.Output{VideoPath: "v.mp4", ThumbnailPath: "t.jpg", Duration: 10},
	}
	_, store, seq := newFixture(t, gen, nil)
	ctx := context.Background()

	p := testsupport.NewProject(t, store, "Clip", project.Input{Kind: project.InputText, Content: "script"})
	job, ok, err := seq.SubmitGeneration(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("SubmitGeneration failed: ok=%v err=%v", ok, err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(gen.release)
	}()
	seq.Close()

	finished, found := seq.Job(job.ID)
	if !found || finished.Status != sequencer.JobSucceeded {
		t.Fatalf("expected succeeded job after close, got %s (%s)", finished.Status, finished.Error)
	}
	loaded, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded.Status != project.StatusCompleted {
		t.Fatalf("expected completed project after close, got %s", loaded.Status)
	}
}

func TestCloseRecordsInFlightGenerationFailure(t *testing.T) {
	gen := &blockingGenerator{
		release: make(chan struct{}),
		fail:    errors.New("render exploded"),
	}
	_, store, seq := newFixture(t, gen, nil)
	ctx := context.Background()

	p := testsupport.NewProject(t, store, "Clip", project.Input{Kind: project.InputText, Content: "script"})
	job, ok, err := seq.SubmitGeneration(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("SubmitGeneration failed: ok=%v err=%v", ok, err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(gen.release)
	}()
	seq.Close()

	finished, found := seq.Job(job.ID)
	if !found || finished.Status != sequencer.JobFailed {
		t.Fatalf("expected failed job after close, got %s", finished.Status)
	}
	loaded, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded.Status != project.StatusFailed {
		t.Fatalf("expected failed project after close, got %s", loaded.Status)
	}
	if loaded.ErrorMessage != "render exploded" {
		t.Fatalf("unexpected error message %q", loaded.ErrorMessage)
	}
}

func TestSubmitEditRequiresCompletedProject(t *testing.T) {
	_, store, seq := newFixture(t, nil, nil)
	ctx := context.Background()

	p := testsupport.NewProject(t, store, "Clip", project.Input{Kind: project.InputText, Content: "script"})
	_, err := seq.SubmitEdit(ctx, p.ID, plan.Operation{Kind: plan.KindReverse})
	if !errors.Is(err, services.ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
}

func completedProject(t *testing.T, store *project.Store, seq *sequencer.Sequencer) *project.Project {
	t.Helper()

	ctx := context.Background()
	p := testsupport.NewProject(t, store, "Clip", project.Input{Kind: project.InputText, Content: "script"})
	job, ok, err := seq.SubmitGeneration(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("SubmitGeneration failed: ok=%v err=%v", ok, err)
	}
	finished := awaitJob(t, seq, job.ID)
	if finished.Status != sequencer.JobSucceeded {
		t.Fatalf("generation did not succeed: %s", finished.Error)
	}
	loaded, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	return loaded
}

func TestSubmitEditValidatesSynchronously(t *testing.T) {
	_, store, seq := newFixture(t, nil, nil)
	p := completedProject(t, store, seq)

	_, err := seq.SubmitEdit(context.Background(), p.ID, plan.Operation{
		Kind:  plan.KindCut,
		Start: 2,
		End:   99,
	})
	if !errors.Is(err, services.ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
	for _, job := range seq.Jobs(p.ID) {
		if job.Kind == sequencer.JobEdit {
			t.Fatal("rejected operation must not queue a job")
		}
	}
}

func TestSequentialEditsComposeInOrder(t *testing.T) {
	transformer := &fakeTransformer{duration: 10}
	_, store, seq := newFixture(t, nil, transformer)
	p := completedProject(t, store, seq)
	ctx := context.Background()

	first, err := seq.SubmitEdit(ctx, p.ID, plan.Operation{Kind: plan.KindSpeed, Factor: 2})
	if err != nil {
		t.Fatalf("SubmitEdit failed: %v", err)
	}
	second, err := seq.SubmitEdit(ctx, p.ID, plan.Operation{Kind: plan.KindSpeed, Factor: 0.5})
	if err != nil {
		t.Fatalf("SubmitEdit failed: %v", err)
	}

	if job := awaitJob(t, seq, first.ID); job.Status != sequencer.JobSucceeded {
		t.Fatalf("first edit failed: %s", job.Error)
	}
	if job := awaitJob(t, seq, second.ID); job.Status != sequencer.JobSucceeded {
		t.Fatalf("second edit failed: %s", job.Error)
	}

	loads := transformer.loadedPaths()
	if len(loads) != 2 {
		t.Fatalf("expected 2 source loads, got %v", loads)
	}
	if loads[1] != "edited-1.mp4" {
		t.Fatalf("second edit must consume the first edit's output, loaded %q", loads[1])
	}

	loaded, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded.Output == nil || loaded.Output.VideoPath != "edited-2.mp4" {
		t.Fatalf("expected final output from second edit, got %#v", loaded.Output)
	}
}

func TestEditFailureKeepsCompletedOutput(t *testing.T) {
	transformer := &fakeTransformer{
		duration:    10,
		failExecute: services.Wrap(services.ErrTransformFailed, "engine", "execute", "boom", nil),
	}
	_, store, seq := newFixture(t, nil, transformer)
	p := completedProject(t, store, seq)
	ctx := context.Background()

	job, err := seq.SubmitEdit(ctx, p.ID, plan.Operation{Kind: plan.KindReverse})
	if err != nil {
		t.Fatalf("SubmitEdit failed: %v", err)
	}
	finished := awaitJob(t, seq, job.ID)
	if finished.Status != sequencer.JobFailed {
		t.Fatalf("expected failed edit job, got %s", finished.Status)
	}

	loaded, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded.Status != project.StatusCompleted {
		t.Fatalf("edit failure must not regress status, got %s", loaded.Status)
	}
	if loaded.Output == nil || loaded.Output.VideoPath != p.Output.VideoPath {
		t.Fatalf("edit failure must keep prior output, got %#v", loaded.Output)
	}
}

func TestQueueDepthRejectsExcessJobs(t *testing.T) {
	transformer := &gatedTransformer{
		fakeTransformer: fakeTransformer{duration: 10},
		gate:            make(chan struct{}),
	}
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.JobQueueDepth = 1
	store := testsupport.MustOpenStore(t, cfg)
	seq := sequencer.New(cfg, store, transformer, generate.NewFromConfig(cfg), nil)
	t.Cleanup(seq.Close)
	p := completedProject(t, store, seq)
	ctx := context.Background()

	running, err := seq.SubmitEdit(ctx, p.ID, plan.Operation{Kind: plan.KindReverse})
	if err != nil {
		t.Fatalf("SubmitEdit failed: %v", err)
	}
	// Wait for the worker to dequeue the first job so the next submission
	// lands in the queue rather than racing the drain loop.
	deadline := time.Now().Add(5 * time.Second)
	for len(transformer.loadedPaths()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first edit never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := seq.SubmitEdit(ctx, p.ID, plan.Operation{Kind: plan.KindReverse}); err != nil {
		t.Fatalf("queued SubmitEdit failed: %v", err)
	}
	_, err = seq.SubmitEdit(ctx, p.ID, plan.Operation{Kind: plan.KindReverse})
	if !errors.Is(err, services.ErrEngineNotReady) {
		t.Fatalf("expected full-queue rejection, got %v", err)
	}

	close(transformer.gate)
	awaitJob(t, seq, running.ID)
}

func TestGlobalPolicyStillCompletesDistinctProjects(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithConcurrency(config.ConcurrencyGlobal))
	store := testsupport.MustOpenStore(t, cfg)
	seq := sequencer.New(cfg, store, &fakeTransformer{duration: 10}, generate.NewFromConfig(cfg), nil)
	t.Cleanup(seq.Close)
	ctx := context.Background()

	a := testsupport.NewProject(t, store, "A", project.Input{Kind: project.InputText, Content: "a"})
	b := testsupport.NewProject(t, store, "B", project.Input{Kind: project.InputText, Content: "b"})

	jobA, _, err := seq.SubmitGeneration(ctx, a.ID)
	if err != nil {
		t.Fatalf("SubmitGeneration a: %v", err)
	}
	jobB, _, err := seq.SubmitGeneration(ctx, b.ID)
	if err != nil {
		t.Fatalf("SubmitGeneration b: %v", err)
	}

	if job := awaitJob(t, seq, jobA.ID); job.Status != sequencer.JobSucceeded {
		t.Fatalf("job a failed: %s", job.Error)
	}
	if job := awaitJob(t, seq, jobB.ID); job.Status != sequencer.JobSucceeded {
		t.Fatalf("job b failed: %s", job.Error)
	}
}
