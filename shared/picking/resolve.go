package picking

import (
	"errors"
	"fmt"

	"CityVision/shared/scene"
)

// ErrUnresolvableTile indica um nó sem tile selecionável na cadeia de pais.
var ErrUnresolvableTile = errors.New("não foi possível resolver o tile do nó")

// ResolveTile sobe a cadeia de pais até o primeiro grupo que carrega uma batch table.
// O tile encontrado precisa estar no estado Pickable.
func ResolveTile(node *scene.Node) (*scene.Tile, error) {
	if node == nil {
		return nil, fmt.Errorf("%w: nó nulo", ErrUnresolvableTile)
	}

	for n := node; n != nil; n = n.Parent() {
		if n.Kind != scene.KindGroup || n.BatchTable() == nil {
			continue
		}
		tile := n.Tile()
		if tile.State() != scene.StatePickable {
			return nil, fmt.Errorf("%w: tile %d em estado %s", ErrUnresolvableTile, tile.ID, tile.State())
		}
		return tile, nil
	}

	return nil, fmt.Errorf("%w: %q não pertence a nenhum tile", ErrUnresolvableTile, node.Name)
}

// Hit é uma interseção já resolvida para o tile dono.
type Hit struct {
	Intersection scene.Intersection
	Tile         *scene.Tile
}

// ResolveFirstVisible percorre as interseções na ordem dada e retorna a primeira
// cujo nó, tile e conteúdo do tile estão visíveis, junto com o tile. Interseções
// que não resolvem para um tile são ignoradas. Retorna nil se nenhuma servir.
func ResolveFirstVisible(hits []scene.Intersection) *Hit {
	for _, hit := range hits {
		if hit.Node == nil || !hit.Node.Visible {
			continue
		}
		tile, err := ResolveTile(hit.Node)
		if err != nil {
			continue
		}
		if tile.Visible && tile.ContentVisible() {
			return &Hit{Intersection: hit, Tile: tile}
		}
	}
	return nil
}
