package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format 是 transcript 的输出格式。
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat 解析格式名称，支持 json、yaml、yml。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("不支持的输出格式 %q（可选 json/yaml）", s)
	}
}

// FormatFromPath 根据扩展名推断格式，未知扩展名按 JSON 处理。
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Write 将 transcript 以指定格式写入 w。
func Write(w io.Writer, t *Transcript, format Format) error {
	if t == nil {
		return nil
	}
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("输出 YAML 失败: %w", err)
		}
		return enc.Close()
	default:
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return fmt.Errorf("输出 JSON 失败: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	}
}

// WriteFile 将 transcript 写入文件，必要时创建目录。
func WriteFile(path string, t *Transcript, format Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, t, format); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadFile 读取 JSON 或 YAML 格式的 transcript。
func ReadFile(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取 transcript 失败: %w", err)
	}
	var t Transcript
	if FormatFromPath(path) == FormatYAML {
		err = yaml.Unmarshal(data, &t)
	} else {
		err = json.Unmarshal(data, &t)
	}
	if err != nil {
		return nil, fmt.Errorf("解析 transcript %s 失败: %w", path, err)
	}
	return &t, nil
}
