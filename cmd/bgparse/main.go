package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/optic"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/types"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

// 命令行参数
var (
	textFile     = pflag.StringP("text", "t", "", "简历纯文本文件，仅在只解析一个XML时使用")
	originalFile = pflag.StringP("original", "o", "", "原始简历文件（PDF），用本地Eino解析器提取纯文本")
	vocabFile    = pflag.String("vocab", "", "技能词表YAML文件")
	mineSkills   = pflag.Bool("mine-skills", true, "从纯文本中挖掘额外技能")
	legacyCounts = pflag.Bool("legacy-counts", false, "保留历史计数行为")
	strictXML    = pflag.Bool("strict", false, "只使用严格XML解析，不回退到HTML解析")
	outDir       = pflag.String("out", "", "输出目录，每个XML生成同名 .json；为空时输出到标准输出")
	parallel     = pflag.IntP("parallel", "p", 4, "并发解析的文件数")
	pretty       = pflag.Bool("pretty", true, "缩进输出JSON")
	verbose      = pflag.BoolP("verbose", "v", false, "输出调试日志")
)

type fileResult struct {
	File      string           `json:"file"`
	Candidate *types.Candidate `json:"candidate,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: bgparse [选项] <bg.xml>...\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	files := pflag.Args()
	if len(files) == 0 {
		pflag.Usage()
		os.Exit(2)
	}
	if (*textFile != "" || *originalFile != "") && len(files) > 1 {
		fmt.Fprintln(os.Stderr, "错误: --text 和 --original 只能用于单个XML")
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.InitWithWriter(config.LoggerConfig{Level: level, Format: "pretty"}, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	opts, err := buildOptions(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}

	resumeText, err := loadResumeText(ctx, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取纯文本失败: %v\n", err)
		os.Exit(1)
	}

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*parallel, 1))
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = parseFile(f, resumeText, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "解析中断: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if err := writeResults(results, len(files) == 1); err != nil {
		fmt.Fprintf(os.Stderr, "输出失败: %v\n", err)
		os.Exit(1)
	}
	if failed > 0 {
		log.Warn().Int("failed", failed).Int("total", len(files)).Msg("部分文件解析失败")
		os.Exit(1)
	}
}

func buildOptions(log zerolog.Logger) (optic.Options, error) {
	miner, err := processor.BuildSkillMiner(config.ParserConfig{
		EnableSkillMining:   *mineSkills,
		SkillVocabularyFile: *vocabFile,
	})
	if err != nil {
		return optic.Options{}, err
	}
	return optic.Options{
		SkillMiner:   miner,
		LegacyCounts: *legacyCounts,
		StrictXML:    *strictXML,
		Logger:       log,
	}, nil
}

func loadResumeText(ctx context.Context, log zerolog.Logger) (string, error) {
	switch {
	case *textFile != "":
		data, err := os.ReadFile(*textFile)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case *originalFile != "":
		data, err := os.ReadFile(*originalFile)
		if err != nil {
			return "", err
		}
		extractor, err := processor.BuildTextExtractor(ctx, config.TikaConfig{Type: "eino"}, log)
		if err != nil {
			return "", err
		}
		return extractor.ExtractText(ctx, data, filepath.Base(*originalFile))
	}
	return "", nil
}

func parseFile(path, resumeText string, opts optic.Options) fileResult {
	res := fileResult{File: path}
	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	cand, err := optic.Parse(data, resumeText, opts)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Candidate = cand
	return res
}

func writeResults(results []fileResult, single bool) error {
	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			return err
		}
		for _, r := range results {
			if r.Candidate == nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", r.File, r.Error)
				continue
			}
			name := strings.TrimSuffix(filepath.Base(r.File), filepath.Ext(r.File)) + ".json"
			data, err := marshal(r.Candidate)
			if err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(*outDir, name), data, 0o644); err != nil {
				return err
			}
		}
		return nil
	}

	if single {
		r := results[0]
		if r.Candidate == nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", r.File, r.Error)
			return nil
		}
		data, err := marshal(r.Candidate)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	// 多个文件时每行一个结果
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func marshal(v any) ([]byte, error) {
	if *pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
