package main

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"CityVision/shared/config"
)

func main() {
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║         CityVision Launcher          ║")
	fmt.Println("╚══════════════════════════════════════╝")

	cfg := config.Load()

	// 1. Iniciar o Servidor
	fmt.Println("[1/2] Iniciando Servidor...")
	serverCmd := exec.Command(binaryPath("servidor", "server"))
	serverCmd.Dir = "servidor"
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr
	if err := serverCmd.Start(); err != nil {
		log.Fatalf("Erro ao iniciar servidor: %v", err)
	}
	defer stop(serverCmd)

	// 2. Aguardar o servidor responder no /healthz
	healthURL := healthzURL(cfg.HTTPAddr)
	fmt.Printf("Aguardando o servidor em %s...\n", healthURL)
	if err := waitHealthy(healthURL, 30*time.Second); err != nil {
		log.Printf("ERRO: %v", err)
		return
	}

	// 3. Iniciar o Cliente e esperar a janela fechar
	fmt.Println("[2/2] Abrindo Cliente...")
	clientCmd := exec.Command(binaryPath("cliente", "client"), "-server", cfg.ServerURL)
	clientCmd.Dir = "cliente" // Diretório de trabalho do cliente (config, logs)

	if err := clientCmd.Run(); err != nil {
		fmt.Printf("ERRO CRÍTICO: cliente terminou com erro: %v\n", err)
		return
	}

	fmt.Println("\nCliente encerrado. Parando o servidor...")
}

// binaryPath monta o caminho absoluto do executável de um componente.
func binaryPath(dir, name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	abs, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return filepath.Join(dir, name)
	}
	return abs
}

// healthzURL converte o endereço de escuta do servidor em uma URL local.
func healthzURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://127.0.0.1:8080/healthz"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s/healthz", net.JoinHostPort(host, port))
}

// waitHealthy consulta url até receber 200 ou estourar o timeout.
func waitHealthy(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	return errors.New("servidor não respondeu a tempo em " + url)
}

func stop(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil {
		log.Printf("Falha ao parar processo: %v", err)
		return
	}
	cmd.Wait()
}
