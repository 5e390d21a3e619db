package buildinfo

const Graffiti = " _____ _____ _____ _   _ ______ \n/  ___|_   _|  __ \\ \\ | |  _  \\\n\\ `--.  | | | |  \\/  \\| | | | |\n `--. \\ | | | | __| . ` | | | |\n/\\__/ /_| |_| |_\\ \\ |\\  | |/ /\n\\____/ \\___/ \\____\\_| \\_/___/\n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "SIGND"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
