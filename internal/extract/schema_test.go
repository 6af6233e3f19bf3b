package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/doubanhot/internal/domain"
)

var listSchema = Schema{
	Category: domain.CategoryTop250,
	Item:     "ul.list li",
	Fields: []Field{
		{Target: TargetTitle, Loc: Locator{Selector: ".name"}, Rule: Squash()},
		{Target: TargetScore, Loc: Locator{Attr: "data-score"}, Rule: Float()},
		{Target: TargetRank, Loc: Locator{Selector: "em"}, Rule: Int()},
		{Target: TargetVotes, Loc: Locator{Selector: "span", Match: MatchLast}, Rule: Count(DigitsRE)},
		{Target: TargetActors, Loc: Locator{Attr: "data-actors"}, Rule: List("/")},
		{Target: TargetDescription, Loc: Locator{Selector: "p", Match: MatchAll}, Rule: Squash()},
		{Target: TargetLink, Loc: Locator{Selector: "a", Attr: "href"}, Rule: Text()},
	},
}

const listHTML = `<html><body><ul class="list">
<li data-score="9.1" data-actors="甲 / 乙">
  <em>1</em><span class="name">  第一
  部 </span><span>x</span><span>100人评价</span>
  <p>上</p><p>下</p>
  <a href="https://example.test/1">l</a><a href="https://example.test/ignored">l2</a>
</li>
<li data-score=""><em>2</em><span>7人评价</span></li>
<li><span class="name">第三部</span><em>三</em></li>
</ul></body></html>`

func TestSchemaParse_FieldsAndTitleDrop(t *testing.T) {
	require.NoError(t, listSchema.Validate())

	recs, err := listSchema.Parse([]byte(listHTML))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	first := recs[0]
	assert.Equal(t, "第一 部", first.Title)
	require.NotNil(t, first.Score)
	assert.Equal(t, 9.1, *first.Score)
	require.NotNil(t, first.Rank)
	assert.Equal(t, 1, *first.Rank)
	require.NotNil(t, first.Votes)
	assert.Equal(t, 100, *first.Votes)
	assert.Equal(t, []string{"甲", "乙"}, first.Actors)
	assert.Equal(t, "上下", first.Description)
	assert.Equal(t, "https://example.test/1", first.Link)
	assert.Equal(t, domain.CategoryTop250, first.Type)

	// 第三条：评分属性缺失 => nil；排名无法解析 => nil；人数缺失 => 0。
	third := recs[1]
	assert.Equal(t, "第三部", third.Title)
	assert.Nil(t, third.Score)
	assert.Nil(t, third.Rank)
	require.NotNil(t, third.Votes)
	assert.Equal(t, 0, *third.Votes)
	assert.Empty(t, third.Link)
}

func TestSchemaParse_Idempotent(t *testing.T) {
	a, err := listSchema.Parse([]byte(listHTML))
	require.NoError(t, err)
	b, err := listSchema.Parse([]byte(listHTML))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSchemaParse_EmptyInput(t *testing.T) {
	_, err := listSchema.Parse(nil)
	assert.Error(t, err)

	recs, err := listSchema.Parse([]byte("<html><body>nothing</body></html>"))
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestSchemaValidate(t *testing.T) {
	assert.Error(t, Schema{Category: "nope", Item: "li"}.Validate())
	assert.Error(t, Schema{Category: domain.CategoryTop250}.Validate())
	assert.Error(t, Schema{Category: domain.CategoryTop250, Item: "li"}.Validate(), "缺少 title")
	assert.Error(t, Schema{
		Category: domain.CategoryTop250,
		Item:     "li",
		Fields: []Field{
			{Target: TargetTitle, Rule: Text()},
			{Target: TargetVotes, Rule: Rule{Kind: KindCount}},
		},
	}.Validate())
}
