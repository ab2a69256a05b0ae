package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vitals_go/internal/config"
	"vitals_go/internal/server"
	"vitals_go/pkg/logger"
)

func main() {
	// Configurar diretório de logs
	logDir := filepath.Join(".", "logs")
	os.MkdirAll(logDir, 0755)

	// Inicializar logger
	logger.Init()
	logger.SetLevel(logger.INFO)
	logger.EnableFileLogging(logDir, "vitals")
	defer logger.Sync()

	// Exibir banner de inicialização
	displayBanner()

	logger.Info("Iniciando Vitals Monitor")

	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Erro ao carregar configurações", err)
	}

	// A taxa de amostragem dita o ritmo de drenagem do FIFO do sensor;
	// acima de 100ms o FIFO de 32 amostras transborda
	if cfg.Sensor.SampleRate > 100*time.Millisecond {
		logger.Warn("Taxa de amostragem muito baixa. Definindo para 100ms")
		cfg.Sensor.SampleRate = 100 * time.Millisecond
	}

	if cfg.Sensor.PrintRaw {
		// A impressão de amostras brutas sai em nível DEBUG
		logger.SetLevel(logger.DEBUG)
	}

	logger.Infof("Configuração carregada: coletor em %s, Redis em %s:%d",
		cfg.Backend.BaseURL, cfg.Redis.Host, cfg.Redis.Port)
	logger.Infof("Taxa de amostragem: %v, janela: %d amostras",
		cfg.Sensor.SampleRate, cfg.Sensor.WindowSize)

	// Criar e iniciar o servidor
	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("Erro ao criar servidor", err)
	}

	// Iniciar o servidor em uma goroutine separada
	go func() {
		logger.Infof("Servidor iniciado na porta %d", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			logger.Fatal("Erro ao iniciar o servidor", err)
		}
	}()

	// Configurar captura de sinais para shutdown gracioso
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Desligando servidor...")

	// Criar contexto com timeout para o shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Desligar o servidor
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Erro durante o shutdown do servidor", err)
	}

	logger.Info("Servidor encerrado com sucesso")
}

// displayBanner exibe um banner de inicialização
func displayBanner() {
	banner := `
 _    _ _____ _______ _______        _______      _______  _____  __   _
  \  /    |      |    |_____| |      |______      |  |  | |     | | \  |
   \/   __|__    |    |     | |_____ ______|      |  |  | |_____| |  \_|  v1.0
`
	fmt.Println(banner)
	fmt.Printf("Iniciando em %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
}
