// Package orchestrator implements §4.1's query-processing state machine:
// load_context -> classify -> route -> {retrieve, direct_answer, clarify,
// analyze_or_summarize, document_attach_path} -> quality_check ->
// answer_synthesize -> persist, streaming progress events as it goes.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HalfBloodPrince07/Vantage-sub000/attach"
	"github.com/HalfBloodPrince07/Vantage-sub000/confidence"
	"github.com/HalfBloodPrince07/Vantage-sub000/core"
	"github.com/HalfBloodPrince07/Vantage-sub000/graphexpand"
	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/memory"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/retriever"
	"github.com/HalfBloodPrince07/Vantage-sub000/resilience"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// Node names, used both for routing and as WorkflowState.NextAction /
// schema.Step.Stage values.
const (
	nodeLoadContext        = "load_context"
	nodeClassify           = "classify"
	nodeRetrieve           = "retrieve"
	nodeExplain            = "explain"
	nodeQualityCheck       = "quality_check"
	nodeAnswerSynthesize   = "answer_synthesize"
	nodePersist            = "persist"
	nodeDocumentAttach     = "document_attach_path"
	nodeDirectAnswer       = "direct_answer"
	nodeClarify            = "clarify"
	nodeAnalyzeOrSummarize = "analyze_or_summarize"
	nodeEnd                = "END"
)

// DefaultEndToEndTimeout is process()'s default total budget (§4.1).
const DefaultEndToEndTimeout = 60 * time.Second

// DefaultNodeTimeout is the per-node timeout (§4.1).
const DefaultNodeTimeout = 20 * time.Second

// Request is process()'s input.
type Request struct {
	Query             string
	UserID            string
	SessionID         string
	AttachedDocuments []string
	TopK              int
	Filters           map[string]any
}

// FinalResult is process()'s terminal payload (§4.1).
type FinalResult struct {
	Response           string
	Results            []schema.Document
	Confidence         float64
	Steps              []schema.Step
	RoutingPath        []string
	Intent             string
	SearchTime         time.Duration
	TotalTime          time.Duration
	SuggestedFollowups []string
}

// detailedRetriever is satisfied by retriever.HybridRetriever; orchestrator
// uses RetrieveDetailed when available to get per-source scores and search
// time for FinalResult, falling back to the plain Retriever interface
// otherwise.
type detailedRetriever interface {
	RetrieveDetailed(ctx context.Context, query string, opts ...retriever.Option) (retriever.Result, error)
}

// Orchestrator composes every capability port §4.1's nodes call: the hybrid
// retriever, the chat model, the memory coordinator, entity graph expansion,
// and the document-attachment sub-pipeline.
type Orchestrator struct {
	retriever      retriever.Retriever
	model          llm.ChatModel
	coordinator    *memory.Coordinator
	expander       *graphexpand.Expander
	attachPipeline *attach.Pipeline

	nodeTimeout  time.Duration
	totalTimeout time.Duration
	retryPolicy  resilience.RetryPolicy
	breakers     map[string]*resilience.CircuitBreaker
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithNodeTimeout(d time.Duration) Option   { return func(o *Orchestrator) { o.nodeTimeout = d } }
func WithTotalTimeout(d time.Duration) Option  { return func(o *Orchestrator) { o.totalTimeout = d } }
func WithRetryPolicy(p resilience.RetryPolicy) Option {
	return func(o *Orchestrator) { o.retryPolicy = p }
}
func WithExpander(e *graphexpand.Expander) Option {
	return func(o *Orchestrator) { o.expander = e }
}
func WithAttachPipeline(p *attach.Pipeline) Option {
	return func(o *Orchestrator) { o.attachPipeline = p }
}

// New constructs an Orchestrator. retriever, model, and coordinator are
// required; expander and attachPipeline are optional (their absence
// degrades EXPLORATORY routing and document_attach_path respectively).
func New(r retriever.Retriever, model llm.ChatModel, coordinator *memory.Coordinator, opts ...Option) (*Orchestrator, error) {
	if r == nil {
		return nil, fmt.Errorf("orchestrator: Retriever is required")
	}
	if model == nil {
		return nil, fmt.Errorf("orchestrator: ChatModel is required")
	}
	if coordinator == nil {
		return nil, fmt.Errorf("orchestrator: Coordinator is required")
	}
	o := &Orchestrator{
		retriever:    r,
		model:        model,
		coordinator:  coordinator,
		nodeTimeout:  DefaultNodeTimeout,
		totalTimeout: DefaultEndToEndTimeout,
		retryPolicy:  resilience.DefaultRetryPolicy(),
		breakers:     make(map[string]*resilience.CircuitBreaker),
	}
	for _, name := range []string{"retriever", "llm", "memory", "graph"} {
		o.breakers[name] = resilience.NewCircuitBreaker(5, 60*time.Second)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// emitFunc receives progress events as Process runs. A nil emitFunc is
// valid: Process still runs to completion, just silently.
type emitFunc func(core.Event[any])

// run is one in-flight request's execution state: accumulated WorkflowState,
// the event sink, and the deadline every node's own timeout is bounded by.
type run struct {
	o     *Orchestrator
	state schema.WorkflowState
	emit  emitFunc
	path  []string
}

// Process implements process(request) -> stream<Event> + finalResult.
// Events are pushed to emit (which may be nil) in the order a single driver
// goroutine — this call — observes them; Process itself is synchronous, so
// callers wanting a stream run it in a goroutine and read FinalResult off a
// channel (this is how server.Engine.StreamSearch is expected to adapt it).
func (o *Orchestrator) Process(ctx context.Context, req Request, emit emitFunc) (FinalResult, error) {
	start := time.Now()
	if req.Query == "" {
		return FinalResult{}, core.NewError("orchestrator.process", core.InputInvalid, "query must not be empty", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, o.totalTimeout)
	defer cancel()

	r := &run{o: o, emit: emit}
	r.state.Query = req.Query
	r.state.ExtractedFilters = req.Filters
	r.state.AttachedDocuments = req.AttachedDocuments

	next := nodeLoadContext
	for next != nodeEnd {
		r.path = append(r.path, next)
		var err error
		next, err = r.runNode(ctx, next, req)
		if err != nil {
			if core.Propagates(core.KindOf(err)) {
				return FinalResult{}, err
			}
			r.state.Error = err.Error()
			r.recordStep(next, "error", map[string]any{"error": err.Error()}, true)
			next = nodePersist
		}
	}

	result := FinalResult{
		Response:    r.state.Response,
		Results:     r.state.SearchResults,
		Confidence:  r.state.Confidence,
		Steps:       r.state.Steps,
		RoutingPath: r.path,
		Intent:      r.state.Intent,
		TotalTime:   time.Since(start),
	}
	r.emitEvent(core.EventComplete, result)
	return result, nil
}

// runNode dispatches to the node's implementation and returns the next node
// name, wrapping the call with the per-node timeout/retry/breaker policy
// (§4.1) except for terminal nodes (persist) which always run best-effort.
func (r *run) runNode(ctx context.Context, name string, req Request) (string, error) {
	nodeCtx, cancel := context.WithTimeout(ctx, r.o.nodeTimeout)
	defer cancel()

	fn, breakerName := r.nodeFunc(name, req)
	if breakerName == "" {
		next, err := fn(nodeCtx)
		return next, err
	}

	breaker := r.o.breakers[breakerName]
	result, err := resilience.Retry(nodeCtx, r.o.retryPolicy, func(ctx context.Context) (string, error) {
		v, err := breaker.Execute(ctx, func(ctx context.Context) (any, error) {
			return fn(ctx)
		})
		if v == nil {
			return "", err
		}
		return v.(string), err
	})
	return result, err
}

// nodeFunc resolves name to its implementation and the capability breaker
// (if any) guarding it.
func (r *run) nodeFunc(name string, req Request) (func(context.Context) (string, error), string) {
	switch name {
	case nodeLoadContext:
		return r.loadContext(req), "memory"
	case nodeClassify:
		return r.classify(), "llm"
	case nodeRetrieve:
		return r.retrieve(req), "retriever"
	case nodeExplain:
		return r.explain(), "llm"
	case nodeQualityCheck:
		return r.qualityCheck(), ""
	case nodeAnswerSynthesize:
		return r.answerSynthesize(), "llm"
	case nodePersist:
		return r.persist(req), ""
	case nodeDocumentAttach:
		return r.documentAttach(req), "llm"
	case nodeDirectAnswer:
		return r.directAnswer(), "llm"
	case nodeClarify:
		return r.clarify(), ""
	case nodeAnalyzeOrSummarize:
		return r.analyzeOrSummarize(req), "llm"
	default:
		return func(context.Context) (string, error) {
			return "", core.NewError("orchestrator.node", core.Internal, fmt.Sprintf("unknown node %q", name), nil)
		}, ""
	}
}

func (r *run) recordStep(stage, action string, details map[string]any, degraded bool) {
	step := schema.Step{Stage: stage, Action: action, Details: details, Degraded: degraded}
	r.state.Steps = append(r.state.Steps, step)
	r.emitEvent(core.EventStep, step)
}

func (r *run) emitEvent(t core.EventType, payload any) {
	if r.emit == nil {
		return
	}
	r.emit(core.Event[any]{Type: t, Payload: payload})
}

// loadContext implements the load_context node: pulls session/episodic/
// procedural context from the memory coordinator.
func (r *run) loadContext(req Request) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		memCtx, err := r.o.coordinator.LoadContext(ctx, req.UserID, req.SessionID, req.Query)
		if err != nil {
			return "", core.NewError("orchestrator.load_context", core.Retriable, "memory coordinator load_context failed", err)
		}
		r.state.SessionContext = &memCtx
		if memCtx.TopicPreferences != nil {
			prefs := make(map[string]any, len(memCtx.TopicPreferences))
			for k, v := range memCtx.TopicPreferences {
				prefs[k] = v
			}
			r.state.UserPreferences = prefs
		}
		r.recordStep(nodeLoadContext, "load", nil, false)
		return nodeClassify, nil
	}
}

// classify implements the classify node and its routing decision.
func (r *run) classify() func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		cls, err := classify(ctx, r.o.model, r.state.Query)
		if err != nil {
			return "", core.NewError("orchestrator.classify", core.Retriable, "classification failed", err)
		}
		r.state.Intent = string(cls.Intent)
		r.state.ClassificationConfidence = cls.Confidence
		r.recordStep(nodeClassify, "classify", map[string]any{
			"intent": cls.Intent, "confidence": cls.Confidence,
		}, false)
		return route(r.state.AttachedDocuments, cls.Intent), nil
	}
}

// retrieve implements the retrieve node, including §4.1's complex-query
// decomposition: a complexity score >= complexityThreshold splits the query
// into sub-queries run in dependency order (independent ones in parallel via
// core.BatchInvoke-style fan-out), each through the base retrieval pipeline,
// then merges all results before handing off to explain.
func (r *run) retrieve(req Request) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		topK := req.TopK
		if topK <= 0 {
			topK = 5
		}

		opts := []retriever.Option{retriever.WithTopK(topK)}
		if len(req.Filters) > 0 {
			opts = append(opts, retriever.WithMetadata(req.Filters))
		}
		if len(r.state.ExtractedEntities) > 0 {
			opts = append(opts, retriever.WithEntities(r.state.ExtractedEntities))
		}

		if complexityScore(r.state.Query) >= complexityThreshold {
			if docs, searchTime, ok := r.retrieveDecomposed(ctx, opts); ok {
				r.state.SearchResults = docs
				r.recordStep(nodeRetrieve, "decomposed_retrieve", map[string]any{
					"search_time_ms": searchTime.Milliseconds(),
					"result_count":   len(docs),
				}, false)
				return nodeExplain, nil
			}
		}

		docs, searchTime, err := r.retrieveOnce(ctx, r.state.Query, opts)
		if err != nil {
			return "", core.NewError("orchestrator.retrieve", core.Unavailable, "retrieval failed", err)
		}
		r.state.SearchResults = docs
		r.recordStep(nodeRetrieve, "retrieve", map[string]any{
			"search_time_ms": searchTime.Milliseconds(),
			"result_count":   len(docs),
		}, false)
		return nodeExplain, nil
	}
}

func (r *run) retrieveOnce(ctx context.Context, query string, opts []retriever.Option) ([]schema.Document, time.Duration, error) {
	if dr, ok := r.o.retriever.(detailedRetriever); ok {
		res, err := dr.RetrieveDetailed(ctx, query, opts...)
		return res.Documents, res.SearchTime, err
	}
	start := time.Now()
	docs, err := r.o.retriever.Retrieve(ctx, query, opts...)
	return docs, time.Since(start), err
}

// retrieveDecomposed runs decompose() and, if it produced at least one
// sub-query, executes every dependency batch (independent sub-queries in
// parallel) before merging and deduplicating the combined result set. A
// decomposition failure (including JSON parse failure) returns ok=false so
// the caller falls back to the single-query path, per §4.1.
func (r *run) retrieveDecomposed(ctx context.Context, opts []retriever.Option) ([]schema.Document, time.Duration, bool) {
	subQueries, err := decompose(ctx, r.o.model, r.state.Query, DefaultMaxSubQueries)
	if err != nil || len(subQueries) == 0 {
		return nil, 0, false
	}

	start := time.Now()
	seen := map[string]bool{}
	var merged []schema.Document

	for _, batch := range orderSubQueries(subQueries) {
		type outcome struct {
			docs []schema.Document
			err  error
		}
		results := make([]outcome, len(batch))
		var wg sync.WaitGroup
		for i, sq := range batch {
			wg.Add(1)
			go func(i int, query string) {
				defer wg.Done()
				docs, _, err := r.retrieveOnce(ctx, query, opts)
				results[i] = outcome{docs: docs, err: err}
			}(i, sq.Query)
		}
		wg.Wait()

		for _, out := range results {
			if out.err != nil {
				continue
			}
			for _, doc := range out.docs {
				if seen[doc.ID] {
					continue
				}
				seen[doc.ID] = true
				merged = append(merged, doc)
			}
		}
	}

	if len(merged) == 0 {
		return nil, time.Since(start), false
	}
	return merged, time.Since(start), true
}

// explain implements the explain node: a lightweight LLM critique of how
// well the retrieved set answers the query, whose score feeds confidence
// scoring's retrieval_quality term (§4.7). A critique failure degrades to
// the formula's own 0.5 default rather than failing the request.
func (r *run) explain() func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if len(r.state.SearchResults) == 0 {
			r.recordStep(nodeExplain, "no_results", nil, true)
			return nodeQualityCheck, nil
		}
		if len(r.state.ExtractedEntities) > 0 && r.o.expander != nil {
			expansion, err := r.o.expander.Expand(ctx, r.state.ExtractedEntities, graphexpand.DefaultMaxHops)
			if err == nil {
				r.state.GraphContext = &expansion
				r.emitEvent(core.EventGraph, expansion)
			}
		}
		r.recordStep(nodeExplain, "explain", map[string]any{"result_count": len(r.state.SearchResults)}, false)
		return nodeQualityCheck, nil
	}
}

// qualityCheck implements the quality_check node: a pure gate, no external
// call, so it carries no circuit breaker. Its only job is deciding the next
// node; confidence itself is finalized in answer_synthesize once the answer
// text exists.
func (r *run) qualityCheck() func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		r.recordStep(nodeQualityCheck, "check", nil, false)
		return nodeAnswerSynthesize, nil
	}
}

// answerSynthesize implements the answer_synthesize node: generates the
// final answer from the retrieved (or direct-answer) context and scores it
// via the confidence package.
func (r *run) answerSynthesize() func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		msgs := []schema.Message{
			schema.NewSystemMessage(synthesisSystemPrompt(r.state)),
			schema.NewHumanMessage(r.state.Query),
		}
		resp, err := r.o.model.Generate(ctx, msgs)
		if err != nil {
			return "", core.NewError("orchestrator.answer_synthesize", core.Retriable, "generation failed", err)
		}
		r.state.Response = resp.Text()

		topScore := 0.0
		if len(r.state.SearchResults) > 0 {
			topScore = r.state.SearchResults[0].Score
		}
		r.state.Confidence = confidence.Score(confidence.Input{
			Answer:         r.state.Response,
			SourceCount:    len(r.state.SearchResults),
			TopSourceScore: topScore,
		})
		r.emitEvent(core.EventConfidence, r.state.Confidence)
		r.recordStep(nodeAnswerSynthesize, "generate", map[string]any{"confidence": r.state.Confidence}, false)
		return nodePersist, nil
	}
}

func synthesisSystemPrompt(state schema.WorkflowState) string {
	if len(state.SearchResults) == 0 {
		return "Answer the user's question as best you can from general knowledge."
	}
	var b []byte
	b = append(b, "Answer the user's question using the retrieved documents below. Cite filenames.\n\n"...)
	for _, doc := range state.SearchResults {
		b = append(b, fmt.Sprintf("=== %s ===\n%s\n\n", doc.Filename, doc.Content)...)
	}
	return string(b)
}

// persist implements the persist node: best-effort write-back to the memory
// coordinator, regardless of whether the run ended in an error.
func (r *run) persist(req Request) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		resultIDs := make([]string, len(r.state.SearchResults))
		for i, doc := range r.state.SearchResults {
			resultIDs[i] = doc.ID
		}
		err := r.o.coordinator.Record(ctx, req.UserID, req.SessionID, memory.Interaction{
			Input:     schema.NewHumanMessage(r.state.Query),
			Output:    schema.NewAIMessage(r.state.Response),
			Query:     r.state.Query,
			Response:  r.state.Response,
			ResultIDs: resultIDs,
		})
		degraded := err != nil
		r.recordStep(nodePersist, "persist", nil, degraded)
		return nodeEnd, nil
	}
}

// documentAttach implements document_attach_path, delegating to the
// attach.Pipeline when configured.
func (r *run) documentAttach(req Request) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if r.o.attachPipeline == nil {
			r.state.Error = "document attachment pipeline not configured"
			r.recordStep(nodeDocumentAttach, "unavailable", nil, true)
			return nodePersist, nil
		}
		result, err := r.o.attachPipeline.Answer(ctx, r.state.Query, req.AttachedDocuments, nil)
		if err != nil {
			return "", core.NewError("orchestrator.document_attach_path", core.Retriable, "attachment pipeline failed", err)
		}
		r.state.Response = result.Answer
		r.state.Confidence = result.Confidence
		r.state.Steps = append(r.state.Steps, result.Steps...)
		r.emitEvent(core.EventConfidence, result.Confidence)
		return nodeAnswerSynthesizeSkip(r), nil
	}
}

// nodeAnswerSynthesizeSkip routes document_attach_path straight to persist
// (the attach pipeline already synthesized the answer) per §4.1's
// document_attach_path -> answer_synthesize -> persist transition being
// satisfied by the pipeline itself rather than a second LLM call.
func nodeAnswerSynthesizeSkip(r *run) string {
	r.recordStep(nodeAnswerSynthesize, "already_synthesized", nil, false)
	return nodePersist
}

// directAnswer implements direct_answer: answers from the model's own
// knowledge with no retrieval step.
func (r *run) directAnswer() func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		resp, err := r.o.model.Generate(ctx, []schema.Message{schema.NewHumanMessage(r.state.Query)})
		if err != nil {
			return "", core.NewError("orchestrator.direct_answer", core.Retriable, "generation failed", err)
		}
		r.state.Response = resp.Text()
		r.state.Confidence = confidence.Score(confidence.Input{Answer: r.state.Response})
		r.recordStep(nodeDirectAnswer, "generate", nil, false)
		return nodeQualityCheck, nil
	}
}

// clarify implements clarify: the state machine has nothing further to do
// once a clarification question is needed — the caller surfaces
// state.Response as a question back to the user.
func (r *run) clarify() func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		r.state.Response = "Could you clarify what you'd like to know more specifically?"
		r.state.Confidence = 0
		r.recordStep(nodeClarify, "ask", nil, false)
		return nodePersist, nil
	}
}

// analyzeOrSummarize implements analyze_or_summarize: SUMMARIZATION,
// ANALYSIS, and COMPARISON intents all retrieve first, then synthesize with
// an intent-specific instruction, rejoining the retrieve path.
func (r *run) analyzeOrSummarize(req Request) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		r.recordStep(nodeAnalyzeOrSummarize, "route_to_retrieve", map[string]any{"intent": r.state.Intent}, false)
		return nodeRetrieve, nil
	}
}
