package world

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"sort"

	"CityVision/cliente/internal/meshing"
	"CityVision/shared/cityobject"
	"CityVision/shared/picking"
	"CityVision/shared/proto/tilenet"
	"CityVision/shared/scene"
	"CityVision/shared/util"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrTileEvicted indica um resultado de um tile descarregado depois do pedido.
var ErrTileEvicted = errors.New("tile descarregado antes de ficar pronto")

type loadedTile struct {
	layer string
	mtime int64
}

// World é o estado do visualizador: camadas carregadas, seleção e versões dos tiles.
// Só deve ser usado pela thread principal.
type World struct {
	picker    *picking.Picker
	selection *picking.Selection
	highlight *scene.Material

	loaded map[int]loadedTile
	// Tiles descarregados que não foram pedidos de novo desde então
	evicted map[int]struct{}
}

// New cria um mundo vazio que destaca a seleção com a cor dada.
func New(highlight color.RGBA) *World {
	return &World{
		picker:    picking.NewPicker(),
		selection: picking.NewSelection(),
		highlight: scene.NewMaterial("destaque", highlight.R, highlight.G, highlight.B, highlight.A),
		loaded:    make(map[int]loadedTile),
		evicted:   make(map[int]struct{}),
	}
}

// Layer retorna a camada id, criando se necessário.
func (w *World) Layer(id string) *picking.Layer {
	if l, ok := w.picker.Layer(id); ok {
		return l
	}
	l := picking.NewLayer(id, w.highlight)
	l.Manager.OnEvict(w.selection.HandleEvict)
	w.picker.AddLayer(l)
	log.Printf("[World] Nova camada %q", id)
	return l
}

// Layers retorna as camadas na ordem de criação.
func (w *World) Layers() []*picking.Layer {
	return w.picker.Layers()
}

// ToggleLayer alterna a visibilidade da camada de índice i.
func (w *World) ToggleLayer(i int) (*picking.Layer, bool) {
	layers := w.picker.Layers()
	if i < 0 || i >= len(layers) {
		return nil, false
	}
	l := layers[i]
	l.Visible = !l.Visible
	for _, t := range l.Manager.Tiles() {
		t.Visible = l.Visible
	}
	if !l.Visible {
		if co := w.selection.Current(); co != nil {
			if t, ok := l.Manager.Tile(co.Tile.ID); ok && t == co.Tile {
				w.selection.Clear()
			}
		}
	}
	return l, true
}

// LayerVisible informa se a camada existe e está visível.
func (w *World) LayerVisible(id string) bool {
	l, ok := w.picker.Layer(id)
	return ok && l.Visible
}

// Apply carrega um tile preparado pelo mesher na sua camada.
// Uma versão anterior do tile (em qualquer camada) é descarregada antes.
// Resultados de tiles descarregados com Evict são recusados até o tile ser pedido de novo.
func (w *World) Apply(res meshing.Result) (*cityobject.Registry, error) {
	if res.Err != nil {
		return nil, res.Err
	}
	if _, gone := w.evicted[res.TileID]; gone {
		return nil, fmt.Errorf("%w: tile %d", ErrTileEvicted, res.TileID)
	}
	if prev, ok := w.loaded[res.TileID]; ok && prev.layer != res.Layer {
		w.unload(res.TileID)
	}

	layer := w.Layer(res.Layer)
	if !layer.Visible {
		res.Tile.Visible = false
	}
	reg, err := layer.Manager.Load(res.Tile)
	if err != nil {
		return nil, err
	}
	w.loaded[res.TileID] = loadedTile{layer: res.Layer, mtime: res.MTime}
	return reg, nil
}

// Evict descarrega o tile. A seleção é esquecida se pertencia a ele.
// Resultados ainda em preparo para o tile passam a ser recusados por Apply.
func (w *World) Evict(tileID int) bool {
	w.evicted[tileID] = struct{}{}
	return w.unload(tileID)
}

func (w *World) unload(tileID int) bool {
	entry, ok := w.loaded[tileID]
	if !ok {
		return false
	}
	delete(w.loaded, tileID)
	if l, ok := w.picker.Layer(entry.layer); ok {
		return l.Manager.Evict(tileID)
	}
	return false
}

// LoadedMTime retorna a versão carregada do tile.
func (w *World) LoadedMTime(tileID int) (int64, bool) {
	entry, ok := w.loaded[tileID]
	return entry.mtime, ok
}

// TileCount retorna quantos tiles estão carregados.
func (w *World) TileCount() int {
	return len(w.loaded)
}

// ObjectCount soma os objetos de todas as camadas.
func (w *World) ObjectCount() int {
	n := 0
	for _, l := range w.picker.Layers() {
		for _, t := range l.Manager.Tiles() {
			if reg, ok := l.Manager.Registry(t.ID); ok {
				n += reg.Len()
			}
		}
	}
	return n
}

// SyncPlan é o resultado de comparar o índice do servidor com os tiles carregados.
type SyncPlan struct {
	Request []int
	Known   []int64 // paralelo a Request; 0 quando o tile não está carregado
	Evict   []int
}

// Plan decide quais tiles pedir (novos ou com outra versão) e quais descarregar
// (carregados mas ausentes do índice). Um tile pedido volta a ser aceito por Apply.
func (w *World) Plan(idx *tilenet.TileIndex) SyncPlan {
	var plan SyncPlan
	inIndex := make(map[int]bool)
	if idx != nil {
		for _, s := range idx.Tiles {
			id := int(s.TileID)
			inIndex[id] = true
			entry, ok := w.loaded[id]
			if ok && entry.mtime == s.MTime {
				continue
			}
			delete(w.evicted, id)
			plan.Request = append(plan.Request, id)
			plan.Known = append(plan.Known, entry.mtime)
		}
	}
	for id := range w.loaded {
		if !inIndex[id] {
			plan.Evict = append(plan.Evict, id)
		}
	}
	sort.Ints(plan.Evict)
	return plan
}

// Pick seleciona o objeto atingido pelo raio. Um raio que não atinge nada mantém a seleção.
func (w *World) Pick(ray util.Ray) (*picking.PickInfo, error) {
	info := w.picker.Pick(ray)
	if info == nil || info.Object == nil {
		return info, nil
	}
	if err := w.selection.Select(info.Object); err != nil {
		return info, err
	}
	log.Printf("[World] Selecionado %s", info.Object)
	return info, nil
}

// Selected retorna o objeto selecionado.
func (w *World) Selected() *cityobject.CityObject {
	return w.selection.Current()
}

// ClearSelection restaura o objeto selecionado ao material padrão.
func (w *World) ClearSelection() error {
	return w.selection.Clear()
}

// FocusTarget retorna o centroide da seleção quando ele é utilizável.
func (w *World) FocusTarget() (mgl32.Vec3, bool) {
	co := w.selection.Current()
	if co == nil || co.Degenerate() {
		return mgl32.Vec3{}, false
	}
	return co.Centroid, true
}

// HighlightColor retorna a cor usada na seleção.
func (w *World) HighlightColor() color.RGBA {
	return w.highlight.Color
}
