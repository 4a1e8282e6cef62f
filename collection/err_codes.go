package collection

// Error codes for media collection mutations.
const (
	// CodeDuplicateItem is returned when an append would introduce a
	// second item with the same ID.
	CodeDuplicateItem = "DUPLICATE_ITEM"

	// CodeIndexOutOfRange is returned when a remove or reorder names a
	// position outside the collection.
	CodeIndexOutOfRange = "INDEX_OUT_OF_RANGE"

	// CodeEmptyURL is returned when an item arrives without a durable URL.
	CodeEmptyURL = "EMPTY_URL"
)
