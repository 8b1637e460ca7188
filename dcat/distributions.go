// Copyright (c) 2024 The koop-output-dcat-ap-201 Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package dcat

import (
	"github.com/koopjs/koop-output-dcat-ap-201/dataset"
)

// the file type of a distribution, an IRI in the EU file-type vocabulary
// (http://publications.europa.eu/resource/authority/file-type)
type Format struct {
	Id string `json:"@id"`
}

// a dcat:Distribution of a dataset
type Distribution struct {
	Type        string `json:"@type"`
	AccessUrl   string `json:"dcat:accessUrl"`
	Format      Format `json:"dct:format"`
	Description string `json:"dct:description"`
	Title       string `json:"dct:title"`
}

func distribution(accessUrl, format, description, title string) Distribution {
	return Distribution{
		Type:        "dcat:Distribution",
		AccessUrl:   accessUrl,
		Format:      Format{Id: format},
		Description: description,
		Title:       title,
	}
}

// GenerateDistributions returns the standard distributions of a dataset in
// their fixed order: landing page, REST API, proxied CSV, GeoJSON and CSV,
// WFS, KML and Shapefile, WMS. Each group appears only if the dataset
// supports it.
func GenerateDistributions(ds *dataset.Dataset) []Distribution {
	distributions := []Distribution{
		distribution(ds.LandingPage, "ftype:HTML", "Web Page", "ArcGIS Hub Dataset"),
		distribution(ds.Url, "ftype:JSON", "Esri REST", "ArcGIS GeoService"),
	}
	if ds.IsProxiedCSV() {
		distributions = append(distributions, csvDistribution(ds))
	}
	if ds.IsFeatureLayer() {
		distributions = append(distributions,
			distribution(ds.DownloadUrl("geojson"), "ftype:GEOJSON", "GeoJSON", "GeoJSON"),
			csvDistribution(ds),
		)
	}
	if ds.SupportsWFS() {
		distributions = append(distributions,
			distribution(ds.OgcUrl("WFS"), "ftype:WFS_SRVC", "OGC WFS", "OGC WFS"))
	}
	if ds.IsFeatureLayer() && ds.HasGeometryType() {
		distributions = append(distributions,
			distribution(ds.DownloadUrl("kml"), "ftype:KML", "KML", "KML"),
			distribution(ds.DownloadUrl("zip"), "ftype:ZIP", "Shapefile", "ZIP"),
		)
	}
	if ds.SupportsWMS() {
		distributions = append(distributions,
			distribution(ds.OgcUrl("WMS"), "ftype:WMS_SRVC", "OGC WMS", "OGC WMS"))
	}
	return distributions
}

func csvDistribution(ds *dataset.Dataset) Distribution {
	return distribution(ds.DownloadUrl("csv"), "ftype:CSV", "CSV", "CSV")
}
