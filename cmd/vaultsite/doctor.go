package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-vaultsite/internal/assets"
	"github.com/alnah/go-vaultsite/internal/config"
	"github.com/alnah/go-vaultsite/internal/fileutil"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Vault    vaultInfo  `json:"vault"`
	Runner   runnerInfo `json:"runner"`
	Katex    katexInfo  `json:"katex"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// vaultInfo holds vault and output directory checks.
type vaultInfo struct {
	Dir       string `json:"dir"`
	Found     bool   `json:"found"`
	OutputDir string `json:"output_dir"`
}

// runnerInfo holds code block interpreter detection results.
type runnerInfo struct {
	Configured bool     `json:"configured"`
	Command    []string `json:"command,omitempty"`
	Path       string   `json:"path,omitempty"`
	Found      bool     `json:"found"`
}

// katexInfo holds KaTeX directory checks.
type katexInfo struct {
	Configured bool   `json:"configured"`
	Dir        string `json:"dir,omitempty"`
	Valid      bool   `json:"valid"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// lookPath finds the interpreter. Replaced in tests.
var lookPath = exec.LookPath

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad usage.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		jsonOutput bool
		configName string
	)
	fs.BoolVar(&jsonOutput, "json", false, "print results as JSON")
	fs.StringVarP(&configName, "config", "c", "", "config file name or path")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printDoctorUsage(env.Stdout)
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v: %v\n", ErrUsage, err)
		return ExitUsage
	}

	envCfg := loadEnvConfig()
	cfg, err := loadConfig(configName, envCfg.ConfigPath, env)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	applyEnvConfig(envCfg, cfg)

	result := runDoctor(cfg)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks against cfg.
func runDoctor(cfg *config.Config) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	checkVault(result, cfg)
	checkRunner(result, cfg)
	checkKatex(result, cfg)
	checkEnvironment(result)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkVault verifies the vault directory exists.
func checkVault(result *doctorResult, cfg *config.Config) {
	result.Vault.Dir = cfg.Input.VaultDir
	result.Vault.OutputDir = cfg.Output.Dir
	if fileutil.DirExists(cfg.Input.VaultDir) {
		result.Vault.Found = true
		return
	}
	result.Warnings = append(result.Warnings,
		fmt.Sprintf("Vault directory %s not found. Pass it to build or set input.vaultDir", cfg.Input.VaultDir))
}

// checkRunner locates the code block interpreter on PATH.
func checkRunner(result *doctorResult, cfg *config.Config) {
	if len(cfg.Run.Command) == 0 {
		return
	}
	result.Runner.Configured = true
	result.Runner.Command = cfg.Run.Command

	path, err := lookPath(cfg.Run.Command[0])
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Interpreter %q not found on PATH", cfg.Run.Command[0]))
		return
	}
	result.Runner.Found = true
	result.Runner.Path = path
}

// checkKatex verifies the KaTeX directory holds the files a build copies.
func checkKatex(result *doctorResult, cfg *config.Config) {
	if cfg.Assets.KatexDir == "" {
		return
	}
	result.Katex.Configured = true
	result.Katex.Dir = cfg.Assets.KatexDir

	if err := assets.CheckKatex(cfg.Assets.KatexDir); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("KaTeX: %v", err))
		return
	}
	result.Katex.Valid = true
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("VAULTSITE_CONTAINER") == "1" {
		return true, "VAULTSITE_CONTAINER=1"
	}
	if fileutil.FileExists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used by the code runner is writable.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "vaultsite-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = os.Remove(testFile)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "vaultsite doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Vault")
	if r.Vault.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Vault.Dir)
	} else {
		fmt.Fprintf(w, "  [WARN] Not found: %s\n", r.Vault.Dir)
	}
	fmt.Fprintf(w, "  [OK] Output: %s\n", r.Vault.OutputDir)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Code Runner")
	switch {
	case !r.Runner.Configured:
		fmt.Fprintln(w, "  [OK] Not configured (code blocks marked run are left as-is)")
	case r.Runner.Found:
		fmt.Fprintf(w, "  [OK] Interpreter: %s\n", r.Runner.Path)
	default:
		fmt.Fprintf(w, "  [ERROR] Interpreter not found: %s\n", r.Runner.Command[0])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "KaTeX")
	switch {
	case !r.Katex.Configured:
		fmt.Fprintln(w, "  [OK] Not configured (math is rendered as plain markup)")
	case r.Katex.Valid:
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Katex.Dir)
	default:
		fmt.Fprintf(w, "  [WARN] Incomplete: %s\n", r.Katex.Dir)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", e)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to build")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

// printDoctorUsage prints help for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vaultsite doctor [--json] [-c config]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the vault, the code block interpreter and the KaTeX directory")
	fmt.Fprintln(w, "a build would use. Exits 1 when a check fails.")
}
