package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/aws/jsii-runtime-go"
	"github.com/qrioso-software/qrioslambda/internal/config"
	"github.com/qrioso-software/qrioslambda/internal/engine"
	"github.com/qrioso-software/qrioslambda/internal/lambda"
	"github.com/qrioso-software/qrioslambda/internal/watch"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	defer jsii.Close()

	a := &app{}

	root := &cobra.Command{
		Use:           "qrioslambda",
		Short:         "Qrioso Lambda: resuelve funciones locales a código embebido o artefactos en S3",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if a.debug {
				level = zerolog.DebugLevel
			}
			a.lg = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).With().Timestamp().Logger()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", config.DefaultProjectFile, "Ruta del YAML")
	root.PersistentFlags().StringVar(&a.region, "region", "", "Región AWS (por defecto la del proyecto)")
	root.PersistentFlags().StringVar(&a.profile, "profile", "", "AWS profile")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Logs de debug")

	// ===== qrioslambda init =====
	service, stage, region := "qrioso-example", "dev", "us-east-1"
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Inicializa un proyecto con una función de ejemplo",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeSample(".", sampleProject(service, stage, region)); err != nil {
				return err
			}
			a.lg.Info().Str("file", config.DefaultProjectFile).Msg("✅ proyecto creado")
			return nil
		},
	}
	initCmd.Flags().StringVar(&service, "service", service, "Nombre del servicio")
	initCmd.Flags().StringVar(&stage, "stage", stage, "Stage (dev|stg|prod)")
	initCmd.Flags().StringVar(&region, "aws-region", region, "Región AWS del proyecto")

	// ===== qrioslambda validate =====
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Valida el proyecto y la resolución de cada función",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			ctl, err := a.control(cmd.Context(), p)
			if err != nil {
				return err
			}
			for id, fn := range p.Functions {
				if _, err := ctl.Resolve(fn.Name, fn.Runtime); err != nil {
					return fmt.Errorf("function %s: %w", id, err)
				}
			}
			a.lg.Info().Int("functions", len(p.Functions)).Msg("✅ configuración válida")
			return nil
		},
	}

	// ===== qrioslambda functions =====
	functionsCmd := &cobra.Command{
		Use:   "functions",
		Short: "Lista las funciones descubiertas",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.control(cmd.Context(), nil)
			if err != nil {
				return err
			}
			list := []map[string]string{}
			for _, rec := range ctl.Functions() {
				list = append(list, map[string]string{"name": rec.Name, "runtime": rec.Runtime, "path": rec.Path})
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(list)
		},
	}

	// ===== qrioslambda resolve =====
	var runtime string
	resolveCmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Resuelve una función: la compila y sube si hace falta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.optionalProject()
			if err != nil {
				return err
			}
			ctl, err := a.control(cmd.Context(), p)
			if err != nil {
				return err
			}
			rec, err := ctl.Resolve(args[0], runtime)
			if err != nil {
				return err
			}
			c, err := ctl.Materialize(cmd.Context(), rec)
			if err != nil {
				return err
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(describe(rec, c))
		},
	}
	resolveCmd.Flags().StringVarP(&runtime, "runtime", "r", "", "Runtime (vacío busca en todos)")

	// ===== qrioslambda watch =====
	var debounce time.Duration
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Vuelve a resolver las funciones cuando cambia su código",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := a.optionalProject()
			if err != nil {
				return err
			}
			ctl, err := a.control(ctx, p)
			if err != nil {
				return err
			}

			handle := func(ctx context.Context, rec lambda.FunctionRecord) {
				c, err := ctl.Materialize(ctx, rec)
				if err != nil {
					a.lg.Error().Err(err).Str("function", rec.String()).Msg("❌ resolve failed")
					return
				}
				ev := a.lg.Info().Str("function", rec.String())
				switch v := c.(type) {
				case lambda.Inline:
					ev = ev.Int("inline_size", len(v.Raw))
				case lambda.Remote:
					ev = ev.Str("key", v.Key).Str("version", v.Version)
				}
				ev.Msg("✅ function refreshed")
			}

			w, err := watch.New(ctl.Functions(), handle, watch.Options{
				Debounce: debounce,
				Ignore:   ignoredOutputs(ctl.Config()),
			}, a.lg)
			if err != nil {
				return err
			}
			a.lg.Info().Int("functions", len(ctl.Functions())).Msg("👀 watching for changes (Ctrl+C para salir)")
			return w.Run(ctx)
		},
	}
	watchCmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Espera tras el último cambio")

	// ===== qrioslambda cdkapp (oculto) =====
	// Entry point que el CDK CLI invoca vía CDK_APP.
	cdkAppCmd := &cobra.Command{
		Use:    "cdkapp",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			ctl, err := a.control(cmd.Context(), p)
			if err != nil {
				return err
			}
			return engine.Synth(cmd.Context(), p, ctl, os.Getenv("CDK_OUTDIR"))
		},
	}

	// ===== qrioslambda synth / deploy / diff =====
	synthCmd := &cobra.Command{
		Use:   "synth",
		Short: "Genera cdk.out (Cloud Assembly)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.project(); err != nil {
				return err
			}
			return a.runCDK(cmd.Context(), "synth", "--output", "cdk.out")
		},
	}

	var requireApproval string
	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Despliega usando CDK CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.project(); err != nil {
				return err
			}
			cmdArgs := []string{"deploy"}
			if requireApproval != "" {
				cmdArgs = append(cmdArgs, "--require-approval", requireApproval)
			}
			return a.runCDK(cmd.Context(), cmdArgs...)
		},
	}
	deployCmd.Flags().StringVar(&requireApproval, "require-approval", "", "never|any-change|broadening")

	diffCmd := &cobra.Command{
		Use:   "diff",
		Short: "Diff con CDK CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.project(); err != nil {
				return err
			}
			return a.runCDK(cmd.Context(), "diff")
		},
	}

	// ===== qrioslambda doctor =====
	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Verifica requisitos del entorno",
		Run: func(cmd *cobra.Command, args []string) {
			check := func(bin string) {
				if _, err := exec.LookPath(bin); err != nil {
					a.lg.Warn().Msgf("❌ %s no encontrado", bin)
				} else {
					a.lg.Info().Msgf("✅ %s OK", bin)
				}
			}
			check("node")
			check("cdk")

			src, err := config.NewSource(a.cfgPath)
			if err != nil {
				a.lg.Warn().Err(err).Msg("❌ no se pudo leer la configuración")
				return
			}
			cfg, err := config.LoadResolution(src)
			if err != nil {
				a.lg.Warn().Err(err).Msg("❌ configuración lambda inválida")
				return
			}

			runtimes := make([]string, 0, len(cfg.BuildRequired))
			for rt := range cfg.BuildRequired {
				runtimes = append(runtimes, rt)
			}
			sort.Strings(runtimes)
			for _, rt := range runtimes {
				if tool := buildTool(cfg.BuildRequired[rt].BuildCommand); tool != "" {
					check(tool)
				}
			}

			if cfg.Bucket == "" {
				a.lg.Warn().Msg("⚠️  sin bucket configurado: solo funciones embebibles")
				return
			}
			p, err := a.optionalProject()
			if err != nil {
				a.lg.Warn().Err(err).Msg("❌ proyecto inválido")
				return
			}
			gw, err := a.gateway(cmd.Context(), p)
			if err != nil {
				a.lg.Warn().Err(err).Msg("❌ AWS config no válida")
				return
			}
			if err := gw.BucketExists(cmd.Context(), cfg.Bucket); err != nil {
				a.lg.Warn().Err(err).Str("bucket", cfg.Bucket).Msg("❌ bucket no accesible")
				return
			}
			a.lg.Info().Str("bucket", cfg.Bucket).Msg("✅ bucket OK")
		},
	}

	root.AddCommand(initCmd, validateCmd, functionsCmd, resolveCmd, watchCmd,
		synthCmd, deployCmd, diffCmd, doctorCmd, cdkAppCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
