package app

import (
	"log"
	"runtime"

	"CityVision/cliente/internal/camera"
	"CityVision/cliente/internal/client"
	"CityVision/cliente/internal/meshing"
	"CityVision/cliente/internal/render"
	"CityVision/cliente/internal/world"
	"CityVision/shared/config"
	"CityVision/shared/picking"
	"CityVision/shared/proto/tilenet"
	"CityVision/shared/util"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

// AppState representa os estados possíveis da aplicação.
type AppState int

const (
	StateLoading AppState = iota // Aguardando os primeiros tiles
	StateViewing                 // Navegando pela cidade
	StatePaused                  // Pausado
)

// App é a aplicação principal do CityVision.
type App struct {
	Config *config.Config
	State  AppState

	Cam *camera.CameraController

	frameCount int

	netClient *client.NetworkClient
	mesher    *meshing.TileMesher
	renderer  *render.Renderer
	world     *world.World

	// Mensagens vindas da goroutine de rede, consumidas na thread principal
	indexQueue *util.ThreadSafeQueue[*tilenet.TileIndex]
	evictQueue *util.ThreadSafeQueue[int]

	// Última seleção (painel de inspeção)
	lastPick *picking.PickInfo

	// Posição da câmera no clique, para distinguir clique de arrasto
	pressCamPos mgl32.Vec3
	pressMouse  rl.Vector2

	lastPing       float64
	initialFocused bool

	// Estado da Splash Screen
	Loading          bool
	LoadingStatus    string
	LoadingProgress  float32
	LoadingExpected  int // Tiles pedidos na carga inicial
	LoadingProcessed int // Tiles já enviados para a GPU
	LoadingStartTime float64

	// Dados do servidor
	ServerVersion string
	Dataset       string
}

// New cria uma nova instância da aplicação.
func New(cfg *config.Config) *App {
	return &App{
		Config:          cfg,
		State:           StateLoading,
		Loading:         true,
		LoadingStatus:   "Conectando ao servidor...",
		LoadingProgress: 0.05,
		indexQueue:      util.NewThreadSafeQueue[*tilenet.TileIndex](),
		evictQueue:      util.NewThreadSafeQueue[int](),
		world:           world.New(cfg.Highlight()),
	}
}

// Run inicia o loop principal da aplicação.
func (a *App) Run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PANIC] Erro fatal recuperado: %v", r)
			panic(r)
		}
	}()

	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	rl.InitWindow(a.Config.WindowWidth, a.Config.WindowHeight, a.Config.WindowTitle)
	rl.SetTraceLogLevel(rl.LogWarning)

	if a.Config.Fullscreen {
		rl.ToggleFullscreen()
	}

	rl.SetTargetFPS(a.Config.TargetFPS)
	rl.SetExitKey(0) // ESC abre o menu de pausa

	a.Cam = camera.New(a.Config.FOV)
	a.Cam.MoveSpeed = a.Config.CameraSpeed
	a.Cam.RotateSpeed = a.Config.CameraSensitivity * 6
	a.Cam.ZoomSpeed = a.Config.ZoomSpeed
	a.LoadingStartTime = rl.GetTime()

	log.Println("[CityVision] Janela inicializada com sucesso")
	log.Printf("[CityVision] Resolução: %dx%d", a.Config.WindowWidth, a.Config.WindowHeight)

	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	log.Printf("[App] Iniciando Mesher com %d workers", workers)
	a.renderer = render.NewRenderer()
	a.renderer.Wireframe = a.Config.WireframeMode
	a.mesher = meshing.NewTileMesher(workers)

	a.setupNetwork()
	go a.connectServer()

	for !rl.WindowShouldClose() {
		a.update()
		a.draw()
	}

	a.shutdown()
	rl.CloseWindow()
}

// update atualiza a lógica a cada frame.
func (a *App) update() {
	a.frameCount++

	a.processIndexUpdates()
	a.processEvictions()

	switch a.State {
	case StateLoading, StateViewing:
		a.updateCamera()
		a.updateInput()
		a.processMesherResults()
		a.keepAlive()
	case StatePaused:
		a.updateInput()
	}
}

// shutdown realiza a limpeza de recursos.
func (a *App) shutdown() {
	log.Println("[App] Finalizando aplicação...")

	if a.netClient != nil {
		a.netClient.Close()
	}
	if a.mesher != nil {
		a.mesher.Stop()
	}
	if a.renderer != nil {
		a.renderer.UnloadAll()
	}

	if err := a.Config.Save(); err != nil {
		log.Printf("[CityVision] Erro ao salvar configurações: %v", err)
	}
}
