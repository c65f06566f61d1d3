package services

import (
	"fmt"
	"net/url"
	"strconv"
)

// Endpoint paths and default parameters for the TMDB API. The bulk sync engine
// and the catalog service must build identical requests so that a synced page
// is a guaranteed cache hit for the matching user request.

const (
	endpointDiscoverMovies = "/discover/movie"
	endpointDiscoverTV     = "/discover/tv"
	endpointSearchMovies   = "/search/movie"
	endpointSearchTV       = "/search/tv"
)

func discoverMovieParams(page int) url.Values {
	return url.Values{
		"include_adult": {"false"},
		"include_video": {"false"},
		"language":      {"en-US"},
		"page":          {strconv.Itoa(page)},
		"sort_by":       {"popularity.desc"},
	}
}

func discoverTVParams(page int) url.Values {
	return url.Values{
		"include_adult":                 {"false"},
		"include_null_first_air_dates":  {"false"},
		"language":                      {"en-US"},
		"page":                          {strconv.Itoa(page)},
		"sort_by":                       {"popularity.desc"},
	}
}

func searchParams(query string, page int) url.Values {
	return url.Values{
		"query":         {query},
		"include_adult": {"false"},
		"language":      {"en-US"},
		"page":          {strconv.Itoa(page)},
	}
}

func detailsParams() url.Values {
	return url.Values{"language": {"en-US"}}
}

func trendingEndpoint(mediaType, timeWindow string) string {
	return fmt.Sprintf("/trending/%s/%s", mediaType, timeWindow)
}
