package book

// Genres 图书类型列表（固定枚举）
var Genres = []string{
	"Action & Adventure",
	"Fantasy",
	"Science Fiction",
	"Classic",
	"Suspense & Thriller",
	"Horror",
	"Detective & Mystery",
	"Romance",
	"Young Adult",
	"Poetry",
	"Comic Book & Graphic Novel",
	"Historical Fiction",
	"Literary Fiction",
	"Comedy",
	"Self-Help",
	"Biography & Autobiography",
	"History",
	"Cookbook",
	"True Crime",
}

var genreSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Genres))
	for _, g := range Genres {
		set[g] = struct{}{}
	}
	return set
}()

// IsValidGenre 是否在类型列表中（区分大小写）
func IsValidGenre(genre string) bool {
	_, ok := genreSet[genre]
	return ok
}

func validateGenres(genres []string) error {
	for _, g := range genres {
		if !IsValidGenre(g) {
			return ErrInvalidGenre.WithMessagef("无效的图书类型: %s", g)
		}
	}
	return nil
}
