package elasticx

import "strings"

// IndexName is the Elasticsearch index holding one collection of a keyspace.
type IndexName string

const pathSeparator = "~"

// NewIndexName joins the keyspace and collection, lowercased since Elasticsearch rejects upper case index names.
// e.g. "<keyspace>~<collection>"
func NewIndexName(keyspace, collection string) IndexName {
	return IndexName(strings.ToLower(keyspace + pathSeparator + collection))
}

func (i IndexName) Elements() []string {
	return strings.SplitN(string(i), pathSeparator, 2)
}

// Keyspace returns the first segment of the index name.
func (i IndexName) Keyspace() string {
	return i.Elements()[0]
}

// Collection returns everything after the keyspace, or an empty string when there is no separator.
func (i IndexName) Collection() string {
	elems := i.Elements()
	if len(elems) < 2 {
		return ""
	}
	return elems[1]
}

func (i IndexName) String() string {
	return string(i)
}
