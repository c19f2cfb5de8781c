package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/ByLCY/parley/binding"
	"github.com/ByLCY/parley/fonts"
	"github.com/ByLCY/parley/internal/appconfig"
	"github.com/ByLCY/parley/internal/ebitenhost"
	"github.com/ByLCY/parley/markup"
	"github.com/ByLCY/parley/measure"
	"github.com/ByLCY/parley/player"
	"github.com/ByLCY/parley/renderer"
	canvasrenderer "github.com/ByLCY/parley/renderer/canvas"
	"github.com/ByLCY/parley/script"
	"github.com/ByLCY/parley/transcript"
)

// scriptFlags 是 run/render/play 共用的参数。
type scriptFlags struct {
	configPath string
	dataPath   string
	dialogue   string
	turbo      bool
	strict     bool
}

func (f *scriptFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "配置文件路径")
	cmd.Flags().StringVar(&f.dataPath, "data", "", "绑定到 ${...} 的 JSON/YAML 数据文件")
	cmd.Flags().StringVarP(&f.dialogue, "dialogue", "d", "", "要播放的对话名（默认第一个）")
	cmd.Flags().BoolVar(&f.turbo, "turbo", false, "立即显示全部文本")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "占位符缺少数据时报错")
}

// load 读取配置并编译脚本。
func (f *scriptFlags) load(path string) (appconfig.Config, *script.Program, error) {
	cfg, err := appconfig.Load(f.configPath)
	if err != nil {
		return appconfig.Config{}, nil, fmt.Errorf("读取配置失败: %w", err)
	}
	if f.turbo {
		cfg.Box.Turbo = true
	}
	var data any
	if f.dataPath != "" {
		if data, err = binding.Load(f.dataPath); err != nil {
			return cfg, nil, err
		}
	}
	doc, err := script.ParseFile(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("解析脚本失败: %w", err)
	}
	prog, err := script.CompileDocument(doc, f.dialogue, script.CompileOptions{
		Data:   data,
		Strict: f.strict,
		Speed:  cfg.Player.Speed(),
	})
	if err != nil {
		return cfg, nil, fmt.Errorf("编译脚本失败: %w", err)
	}
	return cfg, prog, nil
}

// newMeasurer 按配置选择等宽网格或字体度量。
func newMeasurer(cfg appconfig.Config, baseDir string) (markup.Measurer, error) {
	if cfg.Font.Monospace() {
		return measure.Monospace{
			Advance:    cfg.Font.Advance,
			Height:     cfg.Font.LineHeight,
			Separation: cfg.Font.LineSeparation,
		}, nil
	}
	return canvasrenderer.NewMeasurer(canvasrenderer.FontOptions{
		BaseDir:        baseDir,
		Regular:        cfg.Font.Path,
		Size:           cfg.Font.Size,
		LineSeparation: cfg.Font.LineSeparation,
	})
}

func playHeadless(cmd *cobra.Command, f *scriptFlags, path string) (appconfig.Config, *transcript.Transcript, error) {
	cfg, prog, err := f.load(path)
	if err != nil {
		return cfg, nil, err
	}
	m, err := newMeasurer(cfg, filepath.Dir(path))
	if err != nil {
		return cfg, nil, err
	}
	p, err := player.New(player.Options{
		Width:         cfg.Box.Width,
		Height:        cfg.Box.Height,
		Measurer:      m,
		Tick:          cfg.Player.Tick(),
		ConfirmAfter:  cfg.Player.ConfirmEveryTicks,
		MaxTicks:      cfg.Player.MaxTicks,
		Turbo:         cfg.Box.Turbo,
		ConfirmAction: cfg.Box.ConfirmAction,
		Logger:        pslog.Ctx(cmd.Context()),
	})
	if err != nil {
		return cfg, nil, err
	}
	tr, err := p.Play(cmd.Context(), prog)
	return cfg, tr, err
}

func newRunCmd() *cobra.Command {
	var f scriptFlags
	var out string
	var format string
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "无界面回放脚本并输出 transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, tr, err := playHeadless(cmd, &f, args[0])
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.Output.Format
				if out != "" {
					format = string(transcript.FormatFromPath(out))
				}
			}
			fm, err := transcript.ParseFormat(format)
			if err != nil {
				return err
			}
			if out == "" {
				return transcript.Write(cmd.OutOrStdout(), tr, fm)
			}
			if err := transcript.WriteFile(out, tr, fm); err != nil {
				return err
			}
			pslog.Ctx(cmd.Context()).Info("transcript written", "path", out, "pages", len(tr.Pages))
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "transcript 输出路径（默认标准输出）")
	cmd.Flags().StringVar(&format, "format", "", "输出格式 json/yaml（默认取配置或扩展名）")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var f scriptFlags
	var out string
	cmd := &cobra.Command{
		Use:   "render <script|transcript>",
		Short: "将脚本回放结果或已有 transcript 渲染为 PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			var (
				cfg appconfig.Config
				tr  *transcript.Transcript
				err error
			)
			if isTranscriptPath(src) {
				if cfg, err = appconfig.Load(f.configPath); err != nil {
					return fmt.Errorf("读取配置失败: %w", err)
				}
				tr, err = transcript.ReadFile(src)
			} else {
				cfg, tr, err = playHeadless(cmd, &f, src)
			}
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(cfg.Output.Dir, strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))+".pdf")
			}

			var r renderer.Renderer = canvasrenderer.NewRenderer(renderOptions(cfg, filepath.Dir(src)))
			pdfBytes, err := r.Render(tr)
			if err != nil {
				return fmt.Errorf("渲染 PDF 失败: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("创建输出目录失败: %w", err)
			}
			if err := os.WriteFile(out, pdfBytes, 0o644); err != nil {
				return fmt.Errorf("写入 PDF 文件失败: %w", err)
			}
			pslog.Ctx(cmd.Context()).Info("pdf written", "path", out, "pages", len(tr.Pages))
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "PDF 输出路径")
	return cmd
}

// renderOptions 让 PDF 使用与度量一致的字体；等宽网格没有物理尺寸，边框按文本自适应。
func renderOptions(cfg appconfig.Config, baseDir string) canvasrenderer.Options {
	opts := canvasrenderer.DefaultOptions()
	opts.Font.BaseDir = baseDir
	opts.Font.LineSeparation = cfg.Font.LineSeparation
	if cfg.Font.Monospace() {
		opts.Scale = 0
		return opts
	}
	opts.Font.Size = cfg.Font.Size
	if cfg.Font.Path != "" && cfg.Font.Path != "embed:"+fonts.Regular {
		opts.Font.Regular = cfg.Font.Path
	}
	return opts
}

func isTranscriptPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func newPlayCmd() *cobra.Command {
	var f scriptFlags
	var width, height int
	var size, gap float64
	cmd := &cobra.Command{
		Use:   "play <script>",
		Short: "在 Ebitengine 窗口中播放脚本",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, prog, err := f.load(args[0])
			if err != nil {
				return err
			}
			var data []byte
			if !cfg.Font.Monospace() && cfg.Font.Path != "" {
				if fonts.IsEmbedded(cfg.Font.Path) {
					data, err = fonts.Load(cfg.Font.Path)
				} else {
					data, err = os.ReadFile(resolvePath(filepath.Dir(args[0]), cfg.Font.Path))
				}
				if err != nil {
					return err
				}
			}
			m, err := ebitenhost.NewMeasurer(data, size, gap)
			if err != nil {
				return err
			}
			g, err := ebitenhost.New(prog, ebitenhost.Options{
				WindowWidth:  width,
				WindowHeight: height,
				Padding:      16,
				Measurer:     m,
				Turbo:        cfg.Box.Turbo,
				Confirm:      cfg.Box.ConfirmAction,
				Logger:       pslog.Ctx(cmd.Context()),
			})
			if err != nil {
				return err
			}
			return ebitenhost.Run(g)
		},
	}
	f.bind(cmd)
	cmd.Flags().IntVar(&width, "width", 640, "窗口宽度（像素）")
	cmd.Flags().IntVar(&height, "height", 160, "窗口高度（像素）")
	cmd.Flags().Float64Var(&size, "size", 20, "字号（像素）")
	cmd.Flags().Float64Var(&gap, "line-gap", 4, "行间距（像素）")
	return cmd
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "管理配置文件",
	}
	var overwrite bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "写入默认配置",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			written, err := appconfig.WriteDefault(path, overwrite)
			if err != nil {
				return err
			}
			pslog.Ctx(cmd.Context()).Info("config written", "path", written)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&overwrite, "force", false, "覆盖已有配置")
	cmd.AddCommand(initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "输出版本信息",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "parley %s\n", version())
			return err
		},
	}
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			return v
		}
	}
	return "v0.0.0-unknown"
}
