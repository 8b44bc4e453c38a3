package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hopkinsidd/flepimop-inference/chain"
	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/likelihood"
	"github.com/hopkinsidd/flepimop-inference/logging"
	"github.com/hopkinsidd/flepimop-inference/metrics"
	"github.com/hopkinsidd/flepimop-inference/monitor"
	"github.com/hopkinsidd/flepimop-inference/monitor/view"
	"github.com/hopkinsidd/flepimop-inference/observations"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
	"github.com/hopkinsidd/flepimop-inference/persistence"
	"github.com/hopkinsidd/flepimop-inference/prior"
	"github.com/hopkinsidd/flepimop-inference/proposal"
	"github.com/hopkinsidd/flepimop-inference/rng"
	"github.com/hopkinsidd/flepimop-inference/simulator"
	"github.com/hopkinsidd/flepimop-inference/simulator/compartmental"
)

// inferOptions holds the infer subcommand's flags (spec.md §6.4): config
// path, run id, slot selection, block, iterations-per-slot, jobs, resume,
// stochastic, plus the ambient output/monitor/base-rate flags an operational
// run needs that the distilled spec left implicit.
type inferOptions struct {
	setup             string
	runID             string
	slots             []int
	block             int
	iterationsPerSlot int
	jobs              int
	resume            bool
	stochastic        bool
	output            string
	monitorAddr       string
	baseBeta          float64
	baseSigmaInv      float64
	baseGammaInv      float64
}

var inferOpts inferOptions

var inferCmd = &cobra.Command{
	Use:   "infer",
	Args:  cobra.NoArgs,
	Short: "Run the MCMC inference chains described by a configuration file",
	RunE:  runInfer,
}

func init() {
	flags := inferCmd.Flags()
	flags.StringVar(&inferOpts.setup, "setup", "inference", "setup name, namespaces artifacts under the output directory")
	flags.StringVar(&inferOpts.runID, "run-id", "", "run id (default: a generated uuid)")
	flags.IntSliceVar(&inferOpts.slots, "slot", nil, "slot ids to run (default: every slot in inference.slots)")
	flags.IntVar(&inferOpts.block, "block", 1, "block index these slots continue from")
	flags.IntVar(&inferOpts.iterationsPerSlot, "iterations-per-slot", 0, "iterations to run per slot (default: inference.iterations_per_slot)")
	flags.IntVar(&inferOpts.jobs, "jobs", 1, "number of slots to run concurrently")
	flags.BoolVar(&inferOpts.resume, "resume", false, "resume each slot from its latest persisted artifacts")
	flags.BoolVar(&inferOpts.stochastic, "stochastic", false, "round proposed seed amounts to integers, for a stochastic simulator")
	flags.StringVar(&inferOpts.output, "output", "model_output", "artifact output directory")
	flags.StringVar(&inferOpts.monitorAddr, "monitor-addr", "", "address to serve the live chain-progress dashboard on (empty disables it)")
	flags.Float64Var(&inferOpts.baseBeta, "base-beta", 0.3, "base transmission rate for the compartmental simulator")
	flags.Float64Var(&inferOpts.baseSigmaInv, "base-sigma-inv", 4, "mean incubation period in days")
	flags.Float64Var(&inferOpts.baseGammaInv, "base-gamma-inv", 7, "mean infectious period in days")
}

func runInfer(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if inferOpts.runID == "" {
		inferOpts.runID = uuid.NewString()
	}
	if len(inferOpts.slots) == 0 {
		for i := 0; i < cfg.Inference.Slots; i++ {
			inferOpts.slots = append(inferOpts.slots, i)
		}
	}

	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	log := logging.New(logging.Config{Level: level, Format: logging.FormatText, Setup: inferOpts.setup, RunID: inferOpts.runID})

	bundle, err := observations.Load(cfg)
	if err != nil {
		return err
	}
	evaluator := likelihood.NewEvaluator(cfg, bundle)
	hierGroups := prior.GroupsFromConfig(cfg.Inference.HierarchicalStatsGeo)
	sim := compartmental.New(cfg, compartmental.Rates{
		Beta:     inferOpts.baseBeta,
		SigmaInv: inferOpts.baseSigmaInv,
		GammaInv: inferOpts.baseGammaInv,
	})

	log.Info().Str("method", string(cfg.Inference.Method)).Int("slots", len(inferOpts.slots)).Msg("starting inference run")

	ctx := cmd.Context()
	if cfg.Inference.Method == config.MethodEMCEE {
		return runEMCEE(ctx, cfg, log, sim, evaluator, hierGroups, inferOpts)
	}
	return runClassic(ctx, cfg, log, sim, evaluator, hierGroups, inferOpts)
}

// runClassic runs the dual-chain driver for every requested slot, bounded to
// opts.jobs concurrent slots, optionally serving a live progress dashboard
// and Prometheus metrics on opts.monitorAddr.
func runClassic(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
	sim simulator.Simulator,
	evaluator likelihood.Evaluator,
	hierGroups []prior.HierarchicalGroup,
	opts inferOptions,
) error {
	schema := cfg.ToSample()
	reg := metrics.New()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshots := make(chan []view.SlotSnapshot, 64)
	if opts.monitorAddr != "" {
		srv, err := monitor.NewServer(runCtx, opts.monitorAddr, opts.slots, snapshots, reg, log)
		if err != nil {
			return fmt.Errorf("starting monitor: %w", err)
		}
		go func() {
			if err := srv.Serve(); err != nil {
				log.Error().Err(err).Msg("monitor server stopped")
			}
		}()
	}

	jobs := opts.jobs
	if jobs <= 0 {
		jobs = 1
	}
	sem := make(chan struct{}, jobs)

	g, gctx := errgroup.WithContext(runCtx)
	for _, slot := range opts.slots {
		slot := slot
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			return runSlot(gctx, cfg, log, sim, evaluator, hierGroups, schema, reg, snapshots, opts, slot)
		})
	}
	return g.Wait()
}

func runSlot(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
	sim simulator.Simulator,
	evaluator likelihood.Evaluator,
	hierGroups []prior.HierarchicalGroup,
	schema paramstore.Sample,
	reg *metrics.Registry,
	snapshots chan<- []view.SlotSnapshot,
	opts inferOptions,
	slot int,
) error {
	rctx := rng.NewContext(cfg.Inference.Seed, slot)
	writer := persistence.Writer{Root: opts.output}

	state, err := resolveInitialState(ctx, cfg, opts, schema, sim, evaluator, hierGroups, rctx, slot)
	if err != nil {
		return fmt.Errorf("slot %d: resolving initial state: %w", slot, err)
	}
	state.Block = opts.block

	driver := chain.Driver{
		Config:       cfg,
		Simulator:    sim,
		Evaluator:    evaluator,
		HierGroups:   hierGroups,
		ScalarPriors: cfg.Inference.Priors,
		Logger:       log,
		Stochastic:   opts.stochastic,
		Progress: func(s *chain.State) error {
			if err := persistSlotProgress(writer, opts, schema, s); err != nil {
				return err
			}
			reg.SetIteration(strconv.Itoa(s.Slot), float64(s.Iteration))
			reg.SetLogLikelihood(strconv.Itoa(s.Slot), "global", s.Global.LogLik)
			reg.SetLogLikelihood(strconv.Itoa(s.Slot), "chimeric", s.Chimeric.LogLik)
			reg.RecordProposal(strconv.Itoa(s.Slot), "global")
			reg.RecordProposal(strconv.Itoa(s.Slot), "chimeric")
			if s.LastAcceptedIndex == s.Iteration {
				reg.RecordAcceptance(strconv.Itoa(s.Slot), "global")
			}

			snapshot := view.SlotSnapshot{
				Slot: s.Slot, Block: s.Block, Iteration: s.Iteration,
				GlobalAcceptRate: s.GlobalAcceptRate(), ChimericAcceptRate: s.ChimericAcceptRate(),
				GlobalScore: s.Global.Score(), ChimericScore: s.Chimeric.Score(),
			}
			select {
			case snapshots <- []view.SlotSnapshot{snapshot}:
			default:
			}
			return nil
		},
	}

	iterations := opts.iterationsPerSlot
	if iterations <= 0 {
		iterations = cfg.Inference.IterationsPerSlot
	}

	if err := driver.RunSlot(ctx, state, iterations); err != nil {
		return fmt.Errorf("slot %d: %w", slot, err)
	}
	if err := persistSlotFinal(writer, opts, schema, state); err != nil {
		return fmt.Errorf("slot %d: writing final artifacts: %w", slot, err)
	}
	return nil
}

// resolveInitialState restores a slot's chain state from its latest
// persisted artifacts (when opts.resume is set), falling back to the
// previous block's final/ artifacts when this block has not persisted
// anything yet (spec.md §4.6's block-boundary rule), or else draws a fresh
// sample from the declared priors (spec.md §4.6's "drawn from the prior"
// chain initialization), scoring it against sim/evaluator if no cached
// likelihood record covers it.
func resolveInitialState(
	ctx context.Context,
	cfg *config.Config,
	opts inferOptions,
	schema paramstore.Sample,
	sim simulator.Simulator,
	evaluator likelihood.Evaluator,
	hierGroups []prior.HierarchicalGroup,
	rctx *rng.Context,
	slot int,
) (*chain.State, error) {
	globalSample, globalIter, globalBook, globalRestored, err := resolveStream(ctx, cfg, opts, schema, sim, evaluator, hierGroups, slot, "global")
	if err != nil {
		return nil, err
	}
	chimericSample, chimericIter, chimericBook, chimericRestored, err := resolveStream(ctx, cfg, opts, schema, sim, evaluator, hierGroups, slot, "chimeric")
	if err != nil {
		return nil, err
	}

	if !globalRestored && !chimericRestored {
		initial := proposal.DrawInitial(rctx.Stream(rng.Proposal), schema)
		logPrior, logLik, perSubpop, err := scoreSample(ctx, sim, evaluator, hierGroups, cfg.Inference.Priors, initial)
		if err != nil {
			return nil, err
		}
		return chain.NewState(slot, initial, logPrior, logLik, perSubpop), nil
	}

	if !globalRestored {
		globalSample, globalBook, globalIter = chimericSample, chimericBook, chimericIter
	}
	if !chimericRestored {
		chimericSample, chimericBook = globalSample, globalBook
	}

	state := chain.NewState(slot, globalSample, globalBook.LogPrior, globalBook.LogLik, globalBook.PerSubpopLogLik)
	state.Chimeric = chimericBook
	if globalIter > chimericIter {
		state.Iteration = globalIter
	} else {
		state.Iteration = chimericIter
	}
	return state, nil
}

// resolveStream restores one stream's latest persisted sample and, if a
// likelihood record matches that same iteration exactly, its cached score —
// otherwise it re-simulates once to recover a score for the resumed sample.
// When this block has nothing persisted yet and opts.block > 1, it falls
// back to the previous block's final/ artifacts (spec.md §4.6), returning
// iter 0 since the new block's own iteration count restarts at zero even
// though a sample was restored. restored is false only when opts.resume is
// unset or neither this block nor the previous one has anything persisted,
// the signal resolveInitialState uses to fall back to a fresh prior draw.
func resolveStream(
	ctx context.Context,
	cfg *config.Config,
	opts inferOptions,
	schema paramstore.Sample,
	sim simulator.Simulator,
	evaluator likelihood.Evaluator,
	hierGroups []prior.HierarchicalGroup,
	slot int,
	stream string,
) (paramstore.Sample, int, chain.Book, bool, error) {
	if !opts.resume {
		return paramstore.Sample{}, 0, chain.Book{}, false, nil
	}
	sample, iter, err := persistence.ResumeSample(opts.output, opts.setup, opts.runID, stream, slot, opts.block, schema)
	if err != nil {
		return paramstore.Sample{}, 0, chain.Book{}, false, err
	}
	if iter > 0 {
		total, logPrior, perSubpop, likIter, ok, err := persistence.ResumeLikelihood(opts.output, opts.setup, opts.runID, stream, slot, opts.block)
		if err != nil {
			return paramstore.Sample{}, 0, chain.Book{}, false, err
		}
		if ok && likIter == iter {
			return sample, iter, chain.Book{Sample: sample, LogPrior: logPrior, LogLik: total - logPrior, PerSubpopLogLik: perSubpop}, true, nil
		}

		logPrior2, logLik, perSubpop2, err := scoreSample(ctx, sim, evaluator, hierGroups, cfg.Inference.Priors, sample)
		if err != nil {
			return paramstore.Sample{}, 0, chain.Book{}, false, err
		}
		return sample, iter, chain.Book{Sample: sample, LogPrior: logPrior2, LogLik: logLik, PerSubpopLogLik: perSubpop2}, true, nil
	}

	if opts.block <= 1 {
		return paramstore.Sample{}, 0, chain.Book{}, false, nil
	}

	finalSample, found, err := persistence.ResumeFinalSample(opts.output, opts.setup, opts.runID, stream, slot, opts.block-1, schema)
	if err != nil {
		return paramstore.Sample{}, 0, chain.Book{}, false, err
	}
	if !found {
		return paramstore.Sample{}, 0, chain.Book{}, false, nil
	}

	total, logPrior, perSubpop, ok, err := persistence.ResumeFinalLikelihood(opts.output, opts.setup, opts.runID, stream, slot, opts.block-1)
	if err != nil {
		return paramstore.Sample{}, 0, chain.Book{}, false, err
	}
	if ok {
		return finalSample, 0, chain.Book{Sample: finalSample, LogPrior: logPrior, LogLik: total - logPrior, PerSubpopLogLik: perSubpop}, true, nil
	}

	logPrior2, logLik, perSubpop2, err := scoreSample(ctx, sim, evaluator, hierGroups, cfg.Inference.Priors, finalSample)
	if err != nil {
		return paramstore.Sample{}, 0, chain.Book{}, false, err
	}
	return finalSample, 0, chain.Book{Sample: finalSample, LogPrior: logPrior2, LogLik: logLik, PerSubpopLogLik: perSubpop2}, true, nil
}

func scoreSample(
	ctx context.Context,
	sim simulator.Simulator,
	evaluator likelihood.Evaluator,
	hierGroups []prior.HierarchicalGroup,
	scalarPriors []config.ScalarPriorConfig,
	sample paramstore.Sample,
) (logPrior, logLik float64, perSubpop map[string]float64, err error) {
	traj, err := sim.Simulate(ctx, sample)
	if err != nil {
		return 0, 0, nil, err
	}
	results, ll, err := evaluator.Evaluate(traj)
	if err != nil {
		return 0, 0, nil, err
	}
	perSubpop = map[string]float64{}
	for _, r := range results {
		perSubpop[r.Subpop] += r.LogLik
	}
	lp := prior.LogPosteriorDensity(sample, hierGroups)
	if len(scalarPriors) > 0 {
		scalarLP, err := prior.ResolveScalar(sample, scalarPriors)
		if err != nil {
			return 0, 0, nil, err
		}
		lp += scalarLP
	}
	return lp, ll, perSubpop, nil
}

// persistSlotProgress writes both streams' artifacts for one iteration.
// Per spec.md §7/§4.6, a persistence failure is fatal for the slot: the
// error is returned to the driver rather than logged and skipped, so
// Driver.RunSlot stops the chain instead of silently losing an iteration's
// record.
func persistSlotProgress(w persistence.Writer, opts inferOptions, schema paramstore.Sample, s *chain.State) error {
	if err := writeStream(w, opts, schema, "global", s.Slot, s.Block, s.Iteration, s.Global); err != nil {
		return err
	}
	return writeStream(w, opts, schema, "chimeric", s.Slot, s.Block, s.Iteration, s.Chimeric)
}

func persistSlotFinal(w persistence.Writer, opts inferOptions, schema paramstore.Sample, s *chain.State) error {
	for _, g := range presentGroups(schema) {
		k := persistence.Key{Setup: opts.setup, RunID: opts.runID, Group: g, Stream: "global", Slot: s.Slot, Block: s.Block}
		if err := w.WriteFinal(k, s.Global.Sample); err != nil {
			return err
		}
		k.Stream = "chimeric"
		if err := w.WriteFinal(k, s.Chimeric.Sample); err != nil {
			return err
		}
	}
	gk := persistence.LikelihoodKey(opts.setup, opts.runID, "global", s.Slot, s.Block, 0)
	if err := w.WriteLikelihoodFinal(gk, s.Global.Score(), s.Global.LogPrior, s.Global.PerSubpopLogLik); err != nil {
		return err
	}
	ck := persistence.LikelihoodKey(opts.setup, opts.runID, "chimeric", s.Slot, s.Block, 0)
	return w.WriteLikelihoodFinal(ck, s.Chimeric.Score(), s.Chimeric.LogPrior, s.Chimeric.PerSubpopLogLik)
}

func writeStream(w persistence.Writer, opts inferOptions, schema paramstore.Sample, stream string, slot, block, iteration int, book chain.Book) error {
	for _, g := range presentGroups(schema) {
		k := persistence.Key{Setup: opts.setup, RunID: opts.runID, Group: g, Stream: stream, Slot: slot, Block: block, Iteration: iteration}
		if err := w.WriteGroup(k, book.Sample); err != nil {
			return err
		}
	}
	lk := persistence.LikelihoodKey(opts.setup, opts.runID, stream, slot, block, iteration)
	return w.WriteLikelihood(lk, book.Score(), book.LogPrior, book.PerSubpopLogLik)
}

func presentGroups(s paramstore.Sample) []paramstore.Group {
	var out []paramstore.Group
	if s.HasSNPI {
		out = append(out, paramstore.GroupSNPI)
	}
	if s.HasHNPI {
		out = append(out, paramstore.GroupHNPI)
	}
	if s.HasHPAR {
		out = append(out, paramstore.GroupHPAR)
	}
	if s.HasSEED {
		out = append(out, paramstore.GroupSEED)
	}
	if s.HasINIT {
		out = append(out, paramstore.GroupINIT)
	}
	return out
}

// runEMCEE runs the ensemble stretch-move backend for cfg.Inference.EMCEE's
// configured walker population, archiving every sweep via
// persistence.EMCEEArchive (spec.md §6.2's EMCEE-specific layout).
func runEMCEE(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
	sim simulator.Simulator,
	evaluator likelihood.Evaluator,
	hierGroups []prior.HierarchicalGroup,
	opts inferOptions,
) error {
	schema := cfg.ToSample()
	archive := persistence.EMCEEArchive{Root: opts.output, Setup: opts.setup, RunID: opts.runID}
	rctx := rng.NewContext(cfg.Inference.Seed, 0)

	initial := make([]paramstore.Sample, cfg.Inference.EMCEE.Walkers)
	for i := range initial {
		initial[i] = proposal.DrawInitial(rctx.Stream(rng.Proposal), schema)
	}
	ensemble := chain.NewEnsemble(cfg, sim, evaluator, hierGroups, initial)

	iterations := opts.iterationsPerSlot
	if iterations <= 0 {
		iterations = cfg.Inference.IterationsPerSlot
	}

	r := rctx.Stream(rng.Ensemble)
	groups := presentGroups(schema)
	for sweep := 1; sweep <= iterations; sweep++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := ensemble.RunSweep(ctx, r); err != nil {
			return fmt.Errorf("emcee sweep %d: %w", sweep, err)
		}

		samples := make([]paramstore.Sample, len(ensemble.Walkers))
		for i, w := range ensemble.Walkers {
			samples[i] = w.Sample
		}
		for _, g := range groups {
			if err := archive.WriteSweep(g, sweep, samples); err != nil {
				log.Error().Err(err).Int("sweep", sweep).Msg("writing emcee sweep artifact")
			}
		}
		log.Info().Int("sweep", sweep).Int("walkers", len(samples)).Msg("emcee sweep complete")
	}
	return nil
}
