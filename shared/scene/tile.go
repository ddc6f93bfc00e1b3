package scene

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition indica uma mudança de estado de tile não permitida.
var ErrInvalidTransition = errors.New("transição de estado de tile inválida")

// TileState é o ciclo de vida de um tile no cliente.
type TileState int

const (
	StateLoading TileState = iota
	StateDecomposed
	StatePickable
	StateEvicted
)

func (s TileState) String() string {
	switch s {
	case StateLoading:
		return "Loading"
	case StateDecomposed:
		return "Decomposed"
	case StatePickable:
		return "Pickable"
	case StateEvicted:
		return "Evicted"
	default:
		return fmt.Sprintf("TileState(%d)", int(s))
	}
}

// Tile é uma unidade de conteúdo carregada: um nó raiz (grupo) com a tabela de
// atributos e um nó de conteúdo cujos filhos são as malhas.
type Tile struct {
	ID         int
	Root       *Node
	Content    *Node
	BatchTable *BatchTable
	Visible    bool

	state TileState
}

// NewTile cria um tile em estado Loading, ainda sem conteúdo.
func NewTile(id int, bt *BatchTable) *Tile {
	t := &Tile{
		ID:         id,
		BatchTable: bt,
		Visible:    true,
		state:      StateLoading,
	}
	t.Root = NewGroup(fmt.Sprintf("tile-%d", id))
	t.Root.tile = t
	return t
}

// SetContent substitui o nó de conteúdo do tile.
func (t *Tile) SetContent(content *Node) {
	if t.Content != nil {
		t.Root.Remove(t.Content)
	}
	t.Content = content
	if content != nil {
		t.Root.Add(content)
	}
}

// ContentVisible indica se o nó de conteúdo existe e está visível.
func (t *Tile) ContentVisible() bool {
	return t.Content != nil && t.Content.Visible
}

// Meshes retorna os filhos diretos do conteúdo que carregam geometria, na ordem do grafo.
func (t *Tile) Meshes() []*Node {
	if t.Content == nil {
		return nil
	}
	var out []*Node
	for _, c := range t.Content.Children() {
		if c.Kind == KindMesh && c.Mesh != nil && c.Mesh.Geometry != nil {
			out = append(out, c)
		}
	}
	return out
}

// State retorna o estado atual do tile.
func (t *Tile) State() TileState {
	return t.state
}

// Advance move o tile para o estado to.
//
//	Loading    -> Decomposed
//	Decomposed -> Pickable
//	Pickable   -> Decomposed   (conteúdo recarregado)
//	qualquer   -> Evicted      (exceto Evicted)
func (t *Tile) Advance(to TileState) error {
	from := t.state
	ok := false
	switch to {
	case StateDecomposed:
		ok = from == StateLoading || from == StatePickable || from == StateDecomposed
	case StatePickable:
		ok = from == StateDecomposed
	case StateEvicted:
		ok = from != StateEvicted
	}
	if !ok {
		return fmt.Errorf("%w: tile %d %s -> %s", ErrInvalidTransition, t.ID, from, to)
	}
	t.state = to
	return nil
}
