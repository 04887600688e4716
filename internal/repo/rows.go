package repo

// Conversões de linha para modelo expostas para camadas que leem o serviço
// relacional remoto, onde as linhas chegam como mapas coluna-valor no
// mesmo formato da base embutida.

// ObraFromRow converte uma linha em Obra.
func ObraFromRow(row map[string]any) Obra {
	return scanObra(row)
}

// EstabelecimentoFromRow converte uma linha em Estabelecimento.
func EstabelecimentoFromRow(row map[string]any) Estabelecimento {
	return scanEstabelecimento(row)
}

// FerramentaFromRow converte uma linha em Ferramenta. Linhas com par de
// localização incoerente rendem erro.
func FerramentaFromRow(row map[string]any) (Ferramenta, error) {
	return scanFerramenta(row)
}

// MovimentacaoFromRow converte uma linha em Movimentacao.
func MovimentacaoFromRow(row map[string]any) (Movimentacao, error) {
	return scanMovimentacao(row)
}

// ObraImageFromRow converte uma linha em ObraImage.
func ObraImageFromRow(row map[string]any) ObraImage {
	return scanObraImage(row)
}
