package scene

import "sort"

// BatchTable é a tabela de atributos de um tile: colunas indexadas por batch id.
// É somente leitura depois de construída.
type BatchTable struct {
	Columns map[string][]any
}

// NewBatchTable cria uma tabela vazia.
func NewBatchTable() *BatchTable {
	return &BatchTable{Columns: make(map[string][]any)}
}

// SetColumn define (ou substitui) uma coluna.
func (bt *BatchTable) SetColumn(name string, values []any) {
	bt.Columns[name] = values
}

// Value retorna o valor da coluna para o batch id. Ids fora da coluna ou
// valores nulos são reportados como ausentes.
func (bt *BatchTable) Value(column string, batchID int) (any, bool) {
	if bt == nil {
		return nil, false
	}
	values, ok := bt.Columns[column]
	if !ok || batchID < 0 || batchID >= len(values) {
		return nil, false
	}
	v := values[batchID]
	if v == nil {
		return nil, false
	}
	return v, true
}

// ColumnNames retorna os nomes das colunas em ordem alfabética.
func (bt *BatchTable) ColumnNames() []string {
	if bt == nil {
		return nil
	}
	names := make([]string, 0, len(bt.Columns))
	for name := range bt.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Props copia os atributos de um batch id, coluna por coluna.
// Colunas sem valor para o id são omitidas.
func (bt *BatchTable) Props(batchID int) map[string]any {
	props := make(map[string]any)
	if bt == nil {
		return props
	}
	for name := range bt.Columns {
		if v, ok := bt.Value(name, batchID); ok {
			props[name] = v
		}
	}
	return props
}

// Len retorna o maior comprimento entre as colunas.
func (bt *BatchTable) Len() int {
	if bt == nil {
		return 0
	}
	n := 0
	for _, values := range bt.Columns {
		n = max(n, len(values))
	}
	return n
}
