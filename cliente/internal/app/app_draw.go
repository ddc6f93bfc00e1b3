package app

import (
	"fmt"
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const appVersion = "CityVision v0.1.0"

// draw renderiza a cena.
func (a *App) draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(30, 30, 40, 255))

	if a.Loading {
		a.drawLoadingScreen()
	} else {
		a.drawScene()
		a.drawHUD()
		a.drawSelectionInfo()

		if a.State == StatePaused {
			a.drawPauseMenu()
		}
	}

	rl.EndDrawing()
}

// drawScene renderiza a cena 3D.
func (a *App) drawScene() {
	rl.BeginMode3D(a.Cam.RLCamera)

	if a.renderer != nil {
		a.renderer.Draw(a.world.LayerVisible)
		a.renderer.DrawSelection(a.world.Selected())
	}

	rl.EndMode3D()
}

// drawHUD desenha a interface sobreposta.
func (a *App) drawHUD() {
	if !a.Config.ShowDebugInfo {
		return
	}

	layers := a.world.Layers()
	width := int32(340)
	height := int32(190 + 18*len(layers))
	x := int32(rl.GetScreenWidth()) - width - 10
	y := int32(10)

	rl.DrawRectangle(x, y, width, height, rl.NewColor(0, 0, 0, 180))
	rl.DrawRectangleLines(x, y, width, height, rl.NewColor(50, 50, 50, 255))

	fps := rl.GetFPS()
	fpsColor := rl.Green
	if fps < 30 {
		fpsColor = rl.Red
	} else if fps < 50 {
		fpsColor = rl.Yellow
	}
	rl.DrawText(fmt.Sprintf("FPS: %d", fps), x+10, y+10, 20, fpsColor)

	syncStatus, syncColor := "Offline", rl.Red
	if a.netClient != nil && a.netClient.IsConnected() {
		syncStatus, syncColor = "Conectado", rl.Green
	}
	rl.DrawText(syncStatus, x+215, y+10, 20, syncColor)

	rl.DrawLine(x+10, y+35, x+width-10, y+35, rl.NewColor(100, 100, 100, 100))

	rl.DrawText("CÂMERA", x+10, y+45, 12, rl.Gray)
	pos := a.Cam.Position()
	rl.DrawText(fmt.Sprintf("Posição: (%.0f, %.0f, %.0f)", pos.X(), pos.Y(), pos.Z()), x+10, y+60, 16, rl.White)
	look := a.Cam.CurrentLookAt
	rl.DrawText(fmt.Sprintf("Alvo: (%.0f, %.0f, %.0f)", look.X(), look.Y(), look.Z()), x+10, y+80, 14, rl.LightGray)

	rl.DrawLine(x+10, y+100, x+width-10, y+100, rl.NewColor(100, 100, 100, 100))

	if a.Dataset != "" {
		rl.DrawText(fmt.Sprintf("%s (servidor %s)", a.Dataset, a.ServerVersion), x+10, y+110, 14, rl.Gold)
	}
	rl.DrawText(fmt.Sprintf("Tiles: %d | Objetos: %d | Fila: %d",
		a.world.TileCount(), a.world.ObjectCount(), a.mesher.Pending()), x+10, y+127, 14, rl.LightGray)

	rl.DrawText("CAMADAS", x+10, y+147, 12, rl.Gray)
	ly := y + 162
	for i, l := range layers {
		c := rl.LightGray
		mark := "[x]"
		if !l.Visible {
			c = rl.DarkGray
			mark = "[ ]"
		}
		rl.DrawText(fmt.Sprintf("%d %s %s (%d tiles)", i+1, mark, l.ID, l.Manager.Len()), x+10, ly, 14, c)
		ly += 18
	}

	wireframeExtra := ""
	if a.Config.WireframeMode {
		wireframeExtra = " [WIREFRAME ON]"
	}
	rl.DrawText("Clique: Selecionar | F: Focar | Botão dir.: Girar", x+10, ly+4, 14, rl.SkyBlue)
	rl.DrawText(fmt.Sprintf("F3: HUD | F4: Wireframe%s", wireframeExtra), x+10, ly+20, 14, rl.SkyBlue)

	titleWidth := rl.MeasureText(appVersion, 18)
	rl.DrawText(appVersion,
		int32(rl.GetScreenWidth())-titleWidth-20, int32(rl.GetScreenHeight())-30,
		18, rl.NewColor(200, 200, 200, 150))
}

// drawSelectionInfo mostra o objeto selecionado e seus atributos.
func (a *App) drawSelectionInfo() {
	co := a.world.Selected()
	if co == nil || a.lastPick == nil || a.lastPick.Object != co {
		return
	}

	keys := make([]string, 0, len(co.Props))
	for k := range co.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	width := int32(320)
	height := int32(130 + 20*len(keys))
	x := int32(10)
	y := int32(10)

	hl := a.world.HighlightColor()
	border := rl.NewColor(hl.R, hl.G, hl.B, 255)

	rl.DrawRectangle(x, y, width, height, rl.NewColor(0, 0, 0, 200))
	rl.DrawRectangleLines(x, y, width, height, border)

	rl.DrawText("OBJETO SELECIONADO", x+15, y+15, 18, border)
	rl.DrawLine(x+15, y+40, x+width-15, y+40, rl.NewColor(100, 100, 100, 255))

	layer := "?"
	if a.lastPick.Layer != nil {
		layer = a.lastPick.Layer.ID
	}
	rl.DrawText(fmt.Sprintf("Tile %d | Batch %d | Camada %s", co.Tile.ID, co.BatchID, layer), x+15, y+50, 16, rl.White)
	rl.DrawText(fmt.Sprintf("Malha %d | Vértices %d..%d (%d)", co.MeshID, co.IndexStart, co.IndexEnd(), co.IndexCount),
		x+15, y+72, 14, rl.LightGray)

	if co.Degenerate() {
		rl.DrawText("Centroide: indefinido", x+15, y+92, 14, rl.Orange)
	} else {
		c := co.Centroid
		rl.DrawText(fmt.Sprintf("Centroide: (%.1f, %.1f, %.1f)", c.X(), c.Y(), c.Z()), x+15, y+92, 14, rl.LightGray)
	}

	py := y + 115
	for _, k := range keys {
		v := co.Props[k]
		if v == nil {
			v = "-"
		}
		rl.DrawText(fmt.Sprintf("%s: %v", k, v), x+15, py, 14, rl.White)
		py += 20
	}
}

// drawPauseMenu desenha o menu de escape centralizado.
func (a *App) drawPauseMenu() {
	screenWidth := int32(rl.GetScreenWidth())
	screenHeight := int32(rl.GetScreenHeight())

	rl.DrawRectangle(0, 0, screenWidth, screenHeight, rl.NewColor(0, 0, 0, 150))

	panelWidth := int32(400)
	panelHeight := int32(250)
	panelX := (screenWidth - panelWidth) / 2
	panelY := (screenHeight - panelHeight) / 2

	rl.DrawRectangle(panelX, panelY, panelWidth, panelHeight, rl.NewColor(30, 30, 35, 255))
	rl.DrawRectangleLines(panelX, panelY, panelWidth, panelHeight, rl.White)

	menuTitle := "MENU DE PAUSA"
	titleWidth := rl.MeasureText(menuTitle, 24)
	rl.DrawText(menuTitle, panelX+(panelWidth-titleWidth)/2, panelY+30, 24, rl.Gold)

	buttonX := panelX + 50
	buttonWidth := panelWidth - 100
	buttonHeight := int32(40)

	if a.drawButton(buttonX, panelY+90, buttonWidth, buttonHeight, "RETOMAR (ESC)", rl.Green) {
		a.State = StateViewing
	}

	if a.drawButton(buttonX, panelY+150, buttonWidth, buttonHeight, "LIMPAR SELEÇÃO", rl.Gray) {
		a.world.ClearSelection()
		a.lastPick = nil
	}
}

// drawButton desenha um botão genérico com hover e retorna true se clicado.
func (a *App) drawButton(x, y, w, h int32, text string, color rl.Color) bool {
	mousePos := rl.GetMousePosition()
	isHover := mousePos.X >= float32(x) && mousePos.X <= float32(x+w) &&
		mousePos.Y >= float32(y) && mousePos.Y <= float32(y+h)

	drawColor := color
	if isHover {
		drawColor = rl.ColorBrightness(color, 0.25)
	}

	rl.DrawRectangle(x, y, w, h, rl.NewColor(50, 50, 50, 255))
	rl.DrawRectangleLines(x, y, w, h, drawColor)

	textWidth := rl.MeasureText(text, 18)
	rl.DrawText(text, x+(w-textWidth)/2, y+(h-18)/2, 18, rl.White)

	return isHover && rl.IsMouseButtonPressed(rl.MouseLeftButton)
}

func (a *App) drawLoadingScreen() {
	screenWidth := int32(rl.GetScreenWidth())
	screenHeight := int32(rl.GetScreenHeight())

	rl.DrawRectangle(0, 0, screenWidth, screenHeight, rl.NewColor(20, 20, 25, 255))

	title := "CITYVISION"
	titleWidth := rl.MeasureText(title, 40)
	rl.DrawText(title, (screenWidth-titleWidth)/2, screenHeight/2-60, 40, rl.Gold)

	barWidth := int32(400)
	barHeight := int32(30)
	barX := (screenWidth - barWidth) / 2
	barY := screenHeight/2 + 20

	rl.DrawRectangle(barX, barY, barWidth, barHeight, rl.DarkGray)
	rl.DrawRectangle(barX, barY, int32(float32(barWidth)*a.LoadingProgress), barHeight, rl.Orange)
	rl.DrawRectangleLines(barX, barY, barWidth, barHeight, rl.White)

	statusWidth := rl.MeasureText(a.LoadingStatus, 18)
	rl.DrawText(a.LoadingStatus, (screenWidth-statusWidth)/2, barY+45, 18, rl.LightGray)

	tip := "Pressione ESPAÇO para entrar imediatamente."
	tipWidth := rl.MeasureText(tip, 16)
	rl.DrawText(tip, (screenWidth-tipWidth)/2, screenHeight-50, 16, rl.Gray)
}
