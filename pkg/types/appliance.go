package types

// Extension is the file extension of appliance descriptors.
const Extension = ".gns3a"

type Appliance struct {
	RegistryVersion int       `json:"registry_version"`
	ApplianceID     string    `json:"appliance_id"`
	Name            string    `json:"name"`
	Category        string    `json:"category,omitempty"`
	Status          string    `json:"status,omitempty"`
	Images          []Image   `json:"images,omitempty"`
	Versions        []Version `json:"versions,omitempty"`
}

type Image struct {
	Filename string `json:"filename"`
	Version  string `json:"version"`
	MD5Sum   string `json:"md5sum"`
	Filesize int64  `json:"filesize,omitempty"`
}

// Version maps disk roles such as hda_disk_image to image filenames.
type Version struct {
	Name   string            `json:"name"`
	Images map[string]string `json:"images"`
}

// References reports whether any version uses filename.
func (a Appliance) References(filename string) bool {
	for _, v := range a.Versions {
		for _, f := range v.Images {
			if f == filename {
				return true
			}
		}
	}
	return false
}
