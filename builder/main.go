package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Cores para o terminal (ANSI)
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// component descreve um executável do projeto.
type component struct {
	Name    string
	Dir     string
	Output  string // sem extensão
	Cgo     bool
	GUI     bool // sem console no Windows
	Static  bool
	Enabled bool
}

func main() {
	runTests := flag.Bool("test", false, "Rodar os testes dos pacotes sem janela antes de compilar")
	noClient := flag.Bool("no-client", false, "Não compilar o cliente (máquinas sem OpenGL/raylib)")
	flag.Parse()

	fmt.Println(ColorCyan + "╔══════════════════════════════════════╗" + ColorReset)
	fmt.Println(ColorCyan + "║       CityVision Native Builder      ║" + ColorReset)
	fmt.Println(ColorCyan + "╚══════════════════════════════════════╝" + ColorReset)

	start := time.Now()

	setupEnvironment()

	if *runTests {
		if err := runGo("TESTES", "test", "./shared/...", "./servidor/...", "./launcher/...", "./builder/..."); err != nil {
			fatal(err)
		}
	}

	// O servidor usa sqlite (cgo); o cliente usa raylib (cgo)
	components := []component{
		{Name: "SERVIDOR", Dir: "servidor", Output: "servidor/server", Cgo: true, Static: true, Enabled: true},
		{Name: "CLIENTE", Dir: "cliente", Output: "cliente/client", Cgo: true, GUI: true, Static: true, Enabled: !*noClient},
		{Name: "LAUNCHER", Dir: "launcher", Output: "CityVision", Enabled: true},
	}

	for i, c := range components {
		if !c.Enabled {
			fmt.Printf(ColorYellow+"\n[%d/%d] %s ignorado"+ColorReset+"\n", i+1, len(components), c.Name)
			continue
		}
		if err := buildComponent(c, runtime.GOOS); err != nil {
			fatal(err)
		}
	}

	fmt.Printf("\n"+ColorCyan+"Build finalizada com sucesso em %v!"+ColorReset+"\n", time.Since(start).Round(time.Second))
	fmt.Printf(ColorYellow+"Dica: Execute o '%s' para abrir a cidade."+ColorReset+"\n", outputName("CityVision", runtime.GOOS))
}

func setupEnvironment() {
	fmt.Println(ColorYellow + "\n[0] Configurando ambiente de compilação..." + ColorReset)

	// Adicionar MSYS2 ao PATH se estiver no Windows
	if runtime.GOOS == "windows" {
		msysPath := `C:\msys64\mingw64\bin`
		currentPath := os.Getenv("PATH")
		if !strings.Contains(currentPath, msysPath) {
			os.Setenv("PATH", msysPath+";"+currentPath)
			fmt.Printf("  - PATH atualizado: %s adicionado.\n", msysPath)
		}
		os.Setenv("CC", "gcc")
		fmt.Println("  - Compilador C: gcc (MSYS2)")
	}
}

// outputName acrescenta a extensão do sistema alvo.
func outputName(base, goos string) string {
	if goos == "windows" {
		return base + ".exe"
	}
	return base
}

// ldflags monta as flags de link do componente para o sistema alvo.
func ldflags(c component, goos string) string {
	flags := []string{"-s", "-w"}
	if c.Static && goos == "windows" {
		flags = append([]string{"-extldflags=-static"}, flags...)
	}
	if c.GUI && goos == "windows" {
		flags = append(flags, "-H=windowsgui")
	}
	return strings.Join(flags, " ")
}

func buildComponent(c component, goos string) error {
	cgoValue := "0"
	if c.Cgo {
		cgoValue = "1"
	}
	os.Setenv("CGO_ENABLED", cgoValue)

	output := outputName(c.Output, goos)
	if err := runGo(c.Name, "build", "-ldflags", ldflags(c, goos), "-o", output, "./"+c.Dir); err != nil {
		return err
	}
	fmt.Printf(ColorGreen+"  - %s compilado com sucesso -> %s"+ColorReset+"\n", c.Name, output)
	return nil
}

func runGo(name string, args ...string) error {
	fmt.Printf(ColorYellow+"\n[+] %s: go %s"+ColorReset+"\n", name, strings.Join(args, " "))

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("falha em %s: %v", name, err)
	}
	return nil
}

func fatal(err error) {
	fmt.Printf("\n"+ColorRed+"[ERRO FATAL] %v"+ColorReset+"\n", err)
	os.Exit(1)
}
