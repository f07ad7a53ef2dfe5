package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/es"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping maps work documents: Spanish full text on title,
// description and category, keyword category ids, numeric year and
// creation time.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = es.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = es.AnalyzerName
	title.Store = true
	title.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("titulo", title)

	// Not stored; descriptions can be long.
	desc := bleve.NewTextFieldMapping()
	desc.Analyzer = es.AnalyzerName
	desc.Store = false
	docMapping.AddFieldMappingsAt("descripcion", desc)

	category := bleve.NewTextFieldMapping()
	category.Analyzer = es.AnalyzerName
	category.Store = true
	docMapping.AddFieldMappingsAt("categoria", category)

	for _, field := range []string{"id", "categoria_id"} {
		kw := bleve.NewTextFieldMapping()
		kw.Analyzer = keyword.Name
		docMapping.AddFieldMappingsAt(field, kw)
	}

	year := bleve.NewNumericFieldMapping()
	year.Store = true
	docMapping.AddFieldMappingsAt("anio", year)

	created := bleve.NewNumericFieldMapping()
	created.Store = true
	docMapping.AddFieldMappingsAt("created_at", created)

	docMapping.AddFieldMappingsAt("destacado", bleve.NewBooleanFieldMapping())

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
