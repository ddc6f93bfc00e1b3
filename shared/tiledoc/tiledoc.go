package tiledoc

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"image/color"
	"os"

	"CityVision/shared/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// MeshDoc é a forma serializável de uma malha de tile.
type MeshDoc struct {
	Name      string     `json:"name"`
	Positions []float32  `json:"positions"`
	BatchIDs  []uint32   `json:"batchIds,omitempty"` // nil = malha sem batch ids
	Color     [4]uint8   `json:"color"`
	Matrix    mgl32.Mat4 `json:"matrix"`
}

// TileDoc é o conteúdo de um tile como trafega entre servidor e cliente e como fica no banco.
type TileDoc struct {
	ID      int              `json:"id"`
	Name    string           `json:"name"`
	Layer   string           `json:"layer"`
	Matrix  mgl32.Mat4       `json:"matrix"`
	Columns map[string][]any `json:"columns"`
	Meshes  []MeshDoc        `json:"meshes"`
}

// Encode serializa o documento em GOB.
func Encode(doc *TileDoc) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("falha ao serializar tile %d: %w", doc.ID, err)
	}
	return buf.Bytes(), nil
}

// Decode lê um documento serializado por Encode.
func Decode(data []byte) (*TileDoc, error) {
	var doc TileDoc
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("falha ao ler tile: %w", err)
	}
	return &doc, nil
}

// LoadJSON lê uma lista de documentos de um arquivo JSON (importação de dataset).
func LoadJSON(path string) ([]*TileDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []*TileDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("dataset %s inválido: %w", path, err)
	}
	return docs, nil
}

// VertexCount soma os vértices de todas as malhas.
func (d *TileDoc) VertexCount() int {
	n := 0
	for _, m := range d.Meshes {
		n += len(m.Positions) / 3
	}
	return n
}

// Build monta o grafo de cena do tile: raiz com a batch table, nó de conteúdo e
// uma folha por malha, na ordem do documento. O tile começa em Loading.
func (d *TileDoc) Build() *scene.Tile {
	bt := scene.NewBatchTable()
	for name, values := range d.Columns {
		bt.SetColumn(name, values)
	}

	tile := scene.NewTile(d.ID, bt)
	tile.Root.Matrix = orIdent(d.Matrix)

	content := scene.NewGroup(fmt.Sprintf("%s/content", d.Name))
	for i, m := range d.Meshes {
		positions := make([]float32, len(m.Positions))
		copy(positions, m.Positions)

		var ids []uint32
		if m.BatchIDs != nil {
			ids = make([]uint32, len(m.BatchIDs))
			copy(ids, m.BatchIDs)
		}

		name := m.Name
		if name == "" {
			name = fmt.Sprintf("mesh-%d", i)
		}
		// Documento sem cor (alfa zero) usa a cor padrão de prédio
		c := color.RGBA{R: m.Color[0], G: m.Color[1], B: m.Color[2], A: m.Color[3]}
		if c.A == 0 {
			c = scene.DefaultBuildingColor
		}
		mat := &scene.Material{Name: name, Color: c}
		node := scene.NewMeshNode(name, scene.NewMesh(scene.NewGeometry(positions, ids), mat))
		node.Matrix = orIdent(m.Matrix)
		content.Add(node)
	}
	tile.SetContent(content)
	return tile
}

func orIdent(m mgl32.Mat4) mgl32.Mat4 {
	if m == (mgl32.Mat4{}) {
		return mgl32.Ident4()
	}
	return m
}
