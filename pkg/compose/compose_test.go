package compose

import "testing"

func TestSplitKeepsParagraphOrder(t *testing.T) {
	t.Parallel()

	chunks := Split("primero\n\nsegundo\n\ntercero")
	if len(chunks) != 3 {
		t.Fatalf("Split returned %d chunks, want 3", len(chunks))
	}

	want := []string{"primero", "segundo", "tercero"}
	for i, chunk := range chunks {
		if chunk != want[i] {
			t.Fatalf("chunks[%d] = %q, want %q", i, chunk, want[i])
		}
	}
}

func TestSplitTrimsAndDropsEmptyChunks(t *testing.T) {
	t.Parallel()

	chunks := Split("  hola  \n\n   \n\n\tchau\t\n\n")
	if len(chunks) != 2 {
		t.Fatalf("Split returned %d chunks, want 2", len(chunks))
	}
	if chunks[0] != "hola" || chunks[1] != "chau" {
		t.Fatalf("chunks = %q, want [hola chau]", chunks)
	}
}

func TestSplitTreatsWhitespaceOnlyLinesAsBoundaries(t *testing.T) {
	t.Parallel()

	chunks := Split("uno\n \t \ndos")
	if len(chunks) != 2 {
		t.Fatalf("Split returned %d chunks, want 2", len(chunks))
	}
}

func TestSplitStripsCitationMarkers(t *testing.T) {
	t.Parallel()

	chunks := Split("Tu pedido está listo【4:2†fuente】.\n\n【1:0†x】")
	if len(chunks) != 1 {
		t.Fatalf("Split returned %d chunks, want 1", len(chunks))
	}
	if chunks[0] != "Tu pedido está listo." {
		t.Fatalf("chunks[0] = %q", chunks[0])
	}
}

func TestSplitEmptyInput(t *testing.T) {
	t.Parallel()

	if chunks := Split("   \n\n  "); len(chunks) != 0 {
		t.Fatalf("Split returned %d chunks, want 0", len(chunks))
	}
}

func TestSplitSingleParagraph(t *testing.T) {
	t.Parallel()

	chunks := Split("una sola línea")
	if len(chunks) != 1 || chunks[0] != "una sola línea" {
		t.Fatalf("chunks = %q", chunks)
	}
}
