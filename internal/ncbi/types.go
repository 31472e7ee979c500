package ncbi

import "github.com/cesargomez89/genofetch/internal/domain"

type datasetReportResponse struct {
	Reports    []assemblyReport `json:"reports"`
	TotalCount int              `json:"total_count"`
}

type assemblyReport struct {
	Accession      string          `json:"accession"`
	AssemblyInfo   assemblyInfo    `json:"assembly_info"`
	AnnotationInfo *annotationInfo `json:"annotation_info"`
}

type assemblyInfo struct {
	AssemblyLevel  string `json:"assembly_level"`
	AssemblyName   string `json:"assembly_name"`
	AssemblyStatus string `json:"assembly_status"`
}

type annotationInfo struct {
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (r assemblyReport) toDomain() domain.GenomeRecord {
	return domain.GenomeRecord{
		Accession:     r.Accession,
		AssemblyLevel: r.AssemblyInfo.AssemblyLevel,
		Annotated:     r.AnnotationInfo != nil,
	}
}
