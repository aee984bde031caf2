// Package bleve indexes the cached tasks for offline full-text search.
package bleve

import (
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/mapping"
	"github.com/blevesearch/bleve/search/query"

	"github.com/jeja2023/tp"
)

type TaskIndex struct {
	index bleve.Index
}

func indexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = simple.Name

	task := bleve.NewDocumentMapping()
	task.AddFieldMappingsAt("title", text)
	task.AddFieldMappingsAt("description", text)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = task
	m.DefaultAnalyzer = simple.Name
	return m
}

// Open opens the index at path, creating it on first use.
func (s *TaskIndex) Open(path string) error {
	var (
		index bleve.Index
		err   error
	)
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		index, err = bleve.New(path, indexMapping())
	} else {
		index, err = bleve.Open(path)
	}
	if err != nil {
		return err
	}

	s.index = index
	return nil
}

// OpenMem opens an index living only in memory.
func (s *TaskIndex) OpenMem() error {
	index, err := bleve.NewMemOnly(indexMapping())
	if err != nil {
		return err
	}

	s.index = index
	return nil
}

func (s *TaskIndex) Close() error {
	if s.index == nil {
		return nil
	}

	return s.index.Close()
}

func (s *TaskIndex) Index(task *tp.Task) error {
	data := map[string]interface{}{
		"title":       task.Title,
		"description": task.Description,
	}

	return s.index.Index(strconv.Itoa(task.ID), data)
}

func (s *TaskIndex) Delete(id int) error {
	return s.index.Delete(strconv.Itoa(id))
}

// Search returns the ids of the tasks whose title or description contains a word
// starting with each word of q. An empty q matches every task.
func (s *TaskIndex) Search(q string) ([]int, error) {
	count, err := s.index.DocCount()
	if err != nil {
		return nil, err
	}

	var searchQuery query.Query = query.NewMatchAllQuery()
	if words := s.searchWords(q); words != nil {
		searchQuery = words
	}

	searchRequest := bleve.NewSearchRequest(searchQuery)
	searchRequest.SortBy([]string{"-_score", "_id"})
	searchRequest.Size = int(count)

	searchResults, err := s.index.Search(searchRequest)
	if err != nil {
		return nil, err
	}

	ids := make([]int, len(searchResults.Hits))
	for i, hit := range searchResults.Hits {
		ids[i], err = strconv.Atoi(hit.ID)
		if err != nil {
			return nil, err
		}
	}

	return ids, nil
}

func (s *TaskIndex) searchWords(q string) query.Query {
	words := strings.Fields(q)

	ands := make([]query.Query, 0, len(words))
	for _, word := range words {
		ands = append(ands, orQ(
			s.prefixQuery(word, "title"),
			s.prefixQuery(word, "description"),
		))
	}

	return andQ(ands...)
}

func (s *TaskIndex) prefixQuery(word, field string) query.Query {
	analyzer := s.index.Mapping().AnalyzerNamed(simple.Name)
	tokens := analyzer.Analyze([]byte(word))
	if len(tokens) == 0 {
		return nil
	}

	conjuncts := make([]query.Query, len(tokens))
	for i, token := range tokens {
		prefix := query.NewPrefixQuery(string(token.Term))
		prefix.SetField(field)
		conjuncts[i] = prefix
	}

	return query.NewConjunctionQuery(conjuncts)
}

func andQ(qs ...query.Query) query.Query {
	ands := make([]query.Query, 0, len(qs))
	for _, q := range qs {
		if q != nil {
			ands = append(ands, q)
		}
	}

	if len(ands) == 0 {
		return nil
	}
	return query.NewConjunctionQuery(ands)
}

func orQ(qs ...query.Query) query.Query {
	ors := make([]query.Query, 0, len(qs))
	for _, q := range qs {
		if q != nil {
			ors = append(ors, q)
		}
	}

	if len(ors) == 0 {
		return nil
	}
	return query.NewDisjunctionQuery(ors)
}
