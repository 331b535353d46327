package cli

import (
	"fmt"
	"io"

	"clyptusrank/internal/ai"
	"clyptusrank/internal/analysis"
	"clyptusrank/internal/common"
	"clyptusrank/internal/config"
	"clyptusrank/internal/ingestion"
	"clyptusrank/internal/refine"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Score a resume against a job description",
	Long: `Analyze a resume against a job description. The resume may be a PDF,
a Word document or plain text. The job description is given inline with
--jd-text or as a file (PDF, Word, text, PNG or JPEG) with --jd-file.

The report lists the extracted resume and job profiles, the match score,
the ATS score and which required skills the resume shows. Skills passed
with --add-skill, or chosen with --interactive, are appended to the resume
and the resume is rescored after each one.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if analyzeOpts.output.OutputFormat == "" {
			analyzeOpts.output.OutputFormat = cfg.App.DefaultFormat
		}
		if err := common.ValidateOutputFormat(analyzeOpts.output.OutputFormat, cfg.App.SupportedFormats); err != nil {
			return err
		}
		return common.ValidateJobDescriptionSource(analyzeOpts.jdText, analyzeOpts.jdFile)
	},
	RunE: runAnalyze,
}

type analyzeOptions struct {
	output      common.CommandConfig
	jdText      string
	jdFile      string
	addSkills   []string
	interactive bool
	resumeOut   string
}

var analyzeOpts analyzeOptions

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOpts.output.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.output.OutputFormat, "format", "", "Output format: json, text, or markdown")
	analyzeCmd.Flags().StringVar(&analyzeOpts.jdText, "jd-text", "", "Job description text")
	analyzeCmd.Flags().StringVar(&analyzeOpts.jdFile, "jd-file", "", "Job description file (pdf, docx, txt, png, jpg)")
	analyzeCmd.Flags().StringArrayVar(&analyzeOpts.addSkills, "add-skill", nil, "Skill to add to the resume before reporting (repeatable)")
	analyzeCmd.Flags().BoolVarP(&analyzeOpts.interactive, "interactive", "i", false, "Pick missing skills to add interactively")
	analyzeCmd.Flags().StringVar(&analyzeOpts.resumeOut, "resume-out", "", "Write the updated resume as PDF to this file")
	analyzeCmd.MarkFlagsMutuallyExclusive("jd-text", "jd-file")

	_ = analyzeCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	ctx := cmd.Context()

	om, shutdown, err := startObservability(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	aiService, err := ai.NewService(cfg, om, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.LogError(err, "Failed to close AI service")
		}
	}()

	req, err := readAnalyzeRequest(common.NewFileProcessor(logger), args[0], analyzeOpts, cfg.App.MaxFileSize)
	if err != nil {
		return err
	}

	logger.Info("Starting resume analysis",
		"resume", args[0],
		"resume_bytes", req.Resume.Size(),
		"jd_file", analyzeOpts.jdFile,
		"jd_chars", len(req.JobDescriptionText),
		"output_format", analyzeOpts.output.OutputFormat)

	analyzer := analysis.NewAnalyzer(ingestion.NewIngester(logger), aiService, aiService, cfg.App.MaxFileSize, om, logger)
	result, err := analyzer.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}

	session := refine.NewSession(*result, aiService,
		refine.Options{EnforceNonDecreasing: cfg.GetScoreConfig().EnforceNonDecreasing}, om, logger)

	stderr := cmd.ErrOrStderr()
	for _, skill := range analyzeOpts.addSkills {
		addSkill(cmd, session, skill, stderr)
	}
	if analyzeOpts.interactive {
		if err := runInteractive(cmd, session, stderr); err != nil {
			return err
		}
	}

	out := common.NewOutputHandlerTo(cmd.OutOrStdout(), logger)
	if err := out.HandleOutput(session.Snapshot(), analyzeOpts.output); err != nil {
		return err
	}

	if analyzeOpts.resumeOut != "" {
		if len(session.AddedSkills()) == 0 {
			_, _ = fmt.Fprintln(stderr, "No skills were added; the updated resume was not written.")
		} else if err := out.WriteResumePDF(session.Snapshot().RawResume, analyzeOpts.resumeOut); err != nil {
			return err
		}
	}

	logger.Info("Resume analysis completed successfully", "added_skills", len(session.AddedSkills()))
	return nil
}

// readAnalyzeRequest loads the resume and optional job description file from disk
func readAnalyzeRequest(files *common.FileProcessor, resumePath string, opts analyzeOptions, maxFileSize int64) (analysis.Request, error) {
	if maxFileSize <= 0 {
		maxFileSize = config.DefaultMaxFileSize
	}

	resume, err := files.ReadDocument(resumePath, analysis.FieldResume, maxFileSize)
	if err != nil {
		return analysis.Request{}, err
	}
	req := analysis.Request{Resume: resume, JobDescriptionText: opts.jdText}

	if opts.jdFile != "" {
		jd, err := files.ReadDocument(opts.jdFile, analysis.FieldJobDescriptionFile, maxFileSize)
		if err != nil {
			return analysis.Request{}, err
		}
		req.JobDescriptionFile = jd
	}
	return req, nil
}

// addSkill reports a failed rescore and keeps going with the previous score
func addSkill(cmd *cobra.Command, session *refine.Session, skill string, w io.Writer) {
	result, err := session.AddSkill(cmd.Context(), skill)
	if err != nil {
		_, _ = fmt.Fprintf(w, "Could not add %q: %v\n", skill, err)
		return
	}
	_, _ = fmt.Fprintf(w, "Added %q. Score: %g, ATS score: %g\n", skill, result.Score.Score, result.Score.ATSScore)
}
