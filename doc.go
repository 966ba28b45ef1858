// Package lifeboat implements an end-to-end survival prediction pipeline
// for the Titanic passenger dataset: CSV loading, feature engineering,
// cross-validated comparison of four classifier families, and submission
// output.
//
// The pieces are reusable packages rather than a single script:
//
//   - dataset: column-oriented tables, CSV loading, submission writing
//   - preprocessing: fit-once transformers (encoding, imputation, pruning,
//     Box-Cox, standardization) composed into a Pipeline
//   - model_selection: stratified splitting, k-fold cross-validation, grid
//     search, and a generic fit-tune-evaluate trainer
//   - linear, tree, ensemble, neighbors: the four native model families
//   - titanic: domain glue binding the generic machinery to the passenger
//     schema
//   - diagnostics: dataset summaries and exploratory plots
//
// # Quick Start
//
//	cfg := titanic.DefaultConfig()
//	cfg.TrainPath = "train.csv"
//	cfg.TestPath = "test.csv"
//
//	logger := log.NewConsoleLogger(os.Stderr)
//	report, err := titanic.Run(cfg, logger)
//	if err != nil {
//	    logger.Fatal().Err(err).Msg("run failed")
//	}
//	for _, eval := range report.Evaluations {
//	    fmt.Printf("%s: %.4f\n", eval.Model, eval.CVAccuracy)
//	}
//
// Every stochastic step draws from an explicit seeded generator, so a run
// with the same inputs and seed reproduces the same comparison table and
// the same submission.
package lifeboat
