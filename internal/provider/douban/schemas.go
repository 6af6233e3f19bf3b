package douban

import (
	"github.com/John-Robertt/doubanhot/internal/domain"
	"github.com/John-Robertt/doubanhot/internal/extract"
)

// 以下 Schema 描述豆瓣各榜单页面的结构（选择器随上游改版需手动更新）。

var NowPlayingSchema = extract.Schema{
	Category: domain.CategoryNowPlaying,
	Item:     "#nowplaying .list-item",
	Fields: []extract.Field{
		{Target: extract.TargetTitle, Loc: extract.Locator{Attr: "data-title"}, Rule: extract.Text()},
		{Target: extract.TargetScore, Loc: extract.Locator{Attr: "data-score"}, Rule: extract.Float()},
		{Target: extract.TargetReleaseDate, Loc: extract.Locator{Attr: "data-release"}, Rule: extract.Text()},
		{Target: extract.TargetDuration, Loc: extract.Locator{Attr: "data-duration"}, Rule: extract.Text()},
		{Target: extract.TargetRegion, Loc: extract.Locator{Attr: "data-region"}, Rule: extract.Text()},
		{Target: extract.TargetDirectors, Loc: extract.Locator{Attr: "data-director"}, Rule: extract.List("/")},
		{Target: extract.TargetActors, Loc: extract.Locator{Attr: "data-actors"}, Rule: extract.List("/")},
		{Target: extract.TargetVotes, Loc: extract.Locator{Attr: "data-votes"}, Rule: extract.Count(extract.DigitsRE)},
		{Target: extract.TargetPoster, Loc: extract.Locator{Selector: ".poster img", Attr: "src"}, Rule: extract.Text()},
		{Target: extract.TargetLink, Loc: extract.Locator{Selector: "a", Attr: "href"}, Rule: extract.Text()},
	},
}

var WeeklySchema = extract.Schema{
	Category: domain.CategoryWeeklyRanking,
	Item:     ".article .item",
	Fields: []extract.Field{
		{Target: extract.TargetTitle, Loc: extract.Locator{Selector: ".pl2 a", Match: extract.MatchAll}, Rule: extract.Squash()},
		{Target: extract.TargetScore, Loc: extract.Locator{Selector: ".star .rating_nums", Match: extract.MatchAll}, Rule: extract.Float()},
		{Target: extract.TargetVotes, Loc: extract.Locator{Selector: ".star .pl", Match: extract.MatchAll}, Rule: extract.Count(extract.VotesRE)},
		{Target: extract.TargetPoster, Loc: extract.Locator{Selector: ".nbg img", Attr: "src"}, Rule: extract.Text()},
		{Target: extract.TargetLink, Loc: extract.Locator{Selector: ".pl2 a", Attr: "href"}, Rule: extract.Text()},
		{Target: extract.TargetDescription, Loc: extract.Locator{Selector: ".pl2 p", Match: extract.MatchAll}, Rule: extract.Text()},
	},
}

var Top250Schema = extract.Schema{
	Category: domain.CategoryTop250,
	Item:     ".grid_view .item",
	Fields: []extract.Field{
		{Target: extract.TargetRank, Loc: extract.Locator{Selector: ".pic em", Match: extract.MatchAll}, Rule: extract.Int()},
		{Target: extract.TargetTitle, Loc: extract.Locator{Selector: ".title"}, Rule: extract.Text()},
		{Target: extract.TargetScore, Loc: extract.Locator{Selector: ".rating_num", Match: extract.MatchAll}, Rule: extract.Float()},
		{Target: extract.TargetVotes, Loc: extract.Locator{Selector: ".star span", Match: extract.MatchLast}, Rule: extract.Count(extract.VotesRE)},
		{Target: extract.TargetPoster, Loc: extract.Locator{Selector: ".pic img", Attr: "src"}, Rule: extract.Text()},
		{Target: extract.TargetLink, Loc: extract.Locator{Selector: ".pic a", Attr: "href"}, Rule: extract.Text()},
		{Target: extract.TargetQuote, Loc: extract.Locator{Selector: ".quote .inq", Match: extract.MatchAll}, Rule: extract.Text()},
	},
}

var NewMoviesSchema = extract.Schema{
	Category: domain.CategoryNewMovies,
	Item:     ".screening-bd .ui-slide-item",
	Fields: []extract.Field{
		{Target: extract.TargetTitle, Loc: extract.Locator{Attr: "data-title"}, Rule: extract.Text()},
		{Target: extract.TargetScore, Loc: extract.Locator{Attr: "data-rate"}, Rule: extract.Float()},
		{Target: extract.TargetPoster, Loc: extract.Locator{Selector: ".poster img", Attr: "src"}, Rule: extract.Text()},
		{Target: extract.TargetLink, Loc: extract.Locator{Selector: "a", Attr: "href"}, Rule: extract.Text()},
	},
}

// TVTop250Schema 与电影 TOP250 页面结构相同，但只保留标题/评分/海报/链接。
var TVTop250Schema = extract.Schema{
	Category: domain.CategoryTVTop250,
	Item:     ".grid_view .item",
	Fields: []extract.Field{
		{Target: extract.TargetTitle, Loc: extract.Locator{Selector: ".title"}, Rule: extract.Text()},
		{Target: extract.TargetScore, Loc: extract.Locator{Selector: ".rating_num", Match: extract.MatchAll}, Rule: extract.Float()},
		{Target: extract.TargetPoster, Loc: extract.Locator{Selector: ".pic img", Attr: "src"}, Rule: extract.Text()},
		{Target: extract.TargetLink, Loc: extract.Locator{Selector: ".pic a", Attr: "href"}, Rule: extract.Text()},
	},
}
