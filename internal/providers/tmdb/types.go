package tmdb

type tmdbSearchMovieResponse struct {
	Results []tmdbSearchMovieResult `json:"results"`
}

type tmdbSearchMovieResult struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
	VoteCount   int     `json:"vote_count"`
	VoteAverage float64 `json:"vote_average"`
}

type tmdbSearchSerieResponse struct {
	Results []tmdbSearchSerieResult `json:"results"`
}

type tmdbSearchSerieResult struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	FirstAirDate string  `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
	VoteCount    int     `json:"vote_count"`
	VoteAverage  float64 `json:"vote_average"`
}

type tmdbMovie struct {
	ID                  int              `json:"id"`
	IMDBID              string           `json:"imdb_id"`
	Title               string           `json:"title"`
	Overview            string           `json:"overview"`
	Tagline             string           `json:"tagline"`
	ReleaseDate         string           `json:"release_date"`
	Runtime             int              `json:"runtime"`
	VoteAverage         float64          `json:"vote_average"`
	Status              string           `json:"status"`
	GenreIDs            []tmdbGenre      `json:"genres"`
	PosterPath          string           `json:"poster_path"`
	BackdropPath        string           `json:"backdrop_path"`
	BelongsToCollection *tmdbCollection  `json:"belongs_to_collection"`
	Credits             tmdbCredits      `json:"credits"`
	Translations        tmdbTranslations `json:"translations"`
	Images              tmdbImages       `json:"images"`
}

type tmdbSerie struct {
	ID              int              `json:"id"`
	Name            string           `json:"name"`
	Overview        string           `json:"overview"`
	FirstAirDate    string           `json:"first_air_date"`
	LastAirDate     string           `json:"last_air_date"`
	VoteAverage     float64          `json:"vote_average"`
	Status          string           `json:"status"`
	GenreIDs        []tmdbGenre      `json:"genres"`
	PosterPath      string           `json:"poster_path"`
	BackdropPath    string           `json:"backdrop_path"`
	Seasons         []tmdbSeasonRef  `json:"seasons"`
	Credits         tmdbCredits      `json:"credits"`
	Translations    tmdbTranslations `json:"translations"`
	Images          tmdbImages       `json:"images"`
	EpisodeGroups   tmdbEpisodeGroups `json:"episode_groups"`
}

type tmdbSeasonRef struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
}

type tmdbGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type tmdbCollection struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type tmdbCredits struct {
	Crew []tmdbCrewMember `json:"crew"`
}

type tmdbCrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type tmdbTranslations struct {
	Translations []tmdbTranslation `json:"translations"`
}

type tmdbTranslation struct {
	ISO6391 string `json:"iso_639_1"`
	Data    struct {
		Title    string `json:"title"`
		Name     string `json:"name"`
		Overview string `json:"overview"`
		Tagline  string `json:"tagline"`
	} `json:"data"`
}

type tmdbImages struct {
	Posters   []tmdbImage `json:"posters"`
	Backdrops []tmdbImage `json:"backdrops"`
}

type tmdbImage struct {
	FilePath    string  `json:"file_path"`
	Width       int     `json:"width"`
	VoteAverage float64 `json:"vote_average"`
	ISO6391     string  `json:"iso_639_1"`
}

// tmdbEpisodeGroups holds "episode groups" of every type; absolute
// ordering (spec.md §4.3) is computed from type-2 groups only.
type tmdbEpisodeGroups struct {
	Results []tmdbEpisodeGroup `json:"results"`
}

type tmdbEpisodeGroup struct {
	ID         string  `json:"id"`
	Type       int     `json:"type"`
	GroupCount int     `json:"group_count"`
	Groups     []tmdbEpisodeGroupItem `json:"groups"`
}

type tmdbEpisodeGroupItem struct {
	Order    int                     `json:"order"`
	Episodes []tmdbEpisodeGroupEntry `json:"episodes"`
}

type tmdbEpisodeGroupEntry struct {
	EpisodeNumber int `json:"episode_number"`
	SeasonNumber  int `json:"season_number"`
	Order         int `json:"order"`
}

type tmdbSeason struct {
	Episodes []tmdbEpisode `json:"episodes"`
}

type tmdbEpisode struct {
	EpisodeNumber int     `json:"episode_number"`
	SeasonNumber  int     `json:"season_number"`
	Name          string  `json:"name"`
	Overview      string  `json:"overview"`
	AirDate       string  `json:"air_date"`
	StillPath     string  `json:"still_path"`
	VoteAverage   float64 `json:"vote_average"`
}
