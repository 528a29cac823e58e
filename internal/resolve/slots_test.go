package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanTemplatesHandlesNesting(t *testing.T) {
	content := `<template extends="base.html">outer <template data-slot="x">inner</template> tail</template><p>after</p>`

	elems := scanTemplates(content)
	assert.Len(t, elems, 1)
	assert.Equal(t, "base.html", elems[0].attrs["extends"])
	assert.Contains(t, elems[0].inner, `<template data-slot="x">inner</template>`)
}

func TestScanTemplatesIgnoresStrayClose(t *testing.T) {
	elems := scanTemplates(`</template><template target="a">x</template>`)
	assert.Len(t, elems, 1)
	assert.Equal(t, "a", elems[0].attrs["target"])
}

func TestExtractSlotsNamedAndDefault(t *testing.T) {
	slots, body, layout := extractSlots(`<template extends="base.html">
<template data-slot="title">My Title</template>
<template target="aside">Side</template>
<p>default content</p>
</template>`)

	assert.Equal(t, "base.html", layout)
	assert.Equal(t, "My Title", slots["title"])
	assert.Equal(t, "Side", slots["aside"])
	assert.Equal(t, "<p>default content</p>", body)
}

func TestExtractSlotsDataLayoutAttribute(t *testing.T) {
	slots, body, layout := extractSlots(`<article data-layout="post.html"><p>hi</p></article>`)
	assert.Equal(t, "post.html", layout)
	assert.Empty(t, slots)
	assert.Equal(t, "<article><p>hi</p></article>", body)
}

func TestExtractSlotsFirstDefinitionWins(t *testing.T) {
	slots, body, _ := extractSlots(`<template data-slot="x">first</template><p>mid</p><template data-slot="x">second</template>`)
	assert.Equal(t, "first", slots["x"])
	assert.Equal(t, "<p>mid</p>", body, "both definitions are removed from the markup")
	assert.NotContains(t, body, "second")
}

func TestApplySlots(t *testing.T) {
	slots := SlotMap{"title": "T", DefaultSlot: "D"}

	out := applySlots(`<h1><slot name="title">fallback</slot></h1><main><slot/></main><aside><slot name="gone">keep me</slot></aside>`, slots)
	assert.Equal(t, `<h1>T</h1><main>D</main><aside>keep me</aside>`, out)
}

func TestApplySlotsEmptySelfClosingUnresolved(t *testing.T) {
	out := applySlots(`<slot name="missing"/>`, SlotMap{})
	assert.Empty(t, out)
}
