package catalog

const (
	linuxBaseImage   = "ubuntu:latest"
	windowsBaseImage = "mcr.microsoft.com/windows/servercore:ltsc2019"
)

func defaultBaseImages() map[string]string {
	return map[string]string{
		OSLinux:   linuxBaseImage,
		OSWindows: windowsBaseImage,
	}
}

func defaultFallbackBuilds() map[string]BuildTemplate {
	return map[string]BuildTemplate{
		OSLinux:   {BaseImage: linuxBaseImage, Cmd: []string{"/bin/bash"}},
		OSWindows: {BaseImage: windowsBaseImage, Cmd: []string{"powershell.exe"}},
	}
}

func env(kv ...string) []EnvVar {
	out := make([]EnvVar, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, EnvVar{Name: kv[i], Value: kv[i+1]})
	}
	return out
}

func nodeApp(image string, port int, cmd ...string) *BuildTemplate {
	return &BuildTemplate{
		BaseImage: image,
		WorkDir:   "/app",
		Steps: []BuildStep{
			{Op: "COPY", Args: "package*.json ./"},
			{Op: "RUN", Args: "npm install"},
			{Op: "COPY", Args: ". ."},
		},
		Expose: port,
		Cmd:    cmd,
	}
}

func pythonApp(image string, port int, cmd ...string) *BuildTemplate {
	return &BuildTemplate{
		BaseImage: image,
		WorkDir:   "/app",
		Steps: []BuildStep{
			{Op: "COPY", Args: "requirements.txt ."},
			{Op: "RUN", Args: "pip install --no-cache-dir -r requirements.txt"},
			{Op: "COPY", Args: ". ."},
		},
		Expose: port,
		Cmd:    cmd,
	}
}

func defaultServices() []Service {
	return []Service{
		{
			Key: "mysql", Label: "MySQL", Image: "mysql:8.0", Kind: KindDatabase,
			Env:   env("MYSQL_ROOT_PASSWORD", "root", "MYSQL_DATABASE", "test"),
			Ports: []string{"3306:3306"},
		},
		{
			Key: "postgresql", Label: "PostgreSQL", Image: "postgres:15", Kind: KindDatabase,
			Env:   env("POSTGRES_PASSWORD", "postgres", "POSTGRES_DB", "test"),
			Ports: []string{"5432:5432"},
		},
		{
			Key: "oracle", Label: "Oracle", Image: "gvenzl/oracle-xe", Kind: KindDatabase,
			Env:   env("ORACLE_PASSWORD", "oracle"),
			Ports: []string{"1521:1521"},
		},
		{
			Key: "sqlserver", Label: "SQL Server", Image: "mcr.microsoft.com/mssql/server:2022-latest", Kind: KindDatabase,
			Env:   env("ACCEPT_EULA", "Y", "SA_PASSWORD", "SqlServer2023!"),
			Ports: []string{"1433:1433"},
		},
		{
			Key: "mongodb", Label: "MongoDB", Image: "mongo:7", Kind: KindDatabase,
			Env:   env("MONGO_INITDB_ROOT_USERNAME", "mongo", "MONGO_INITDB_ROOT_PASSWORD", "mongo"),
			Ports: []string{"27017:27017"},
		},
		{
			Key: "kafka", Label: "Kafka", Image: "bitnami/kafka:latest", Kind: KindBroker,
			Ports: []string{"9092:9092"},
			Companion: &Companion{
				Name:           "zookeeper",
				Image:          "bitnami/zookeeper:latest",
				Ports:          []string{"2181:2181"},
				Env:            env("ALLOW_ANONYMOUS_LOGIN", "yes"),
				ConnectVar:     "KAFKA_CFG_ZOOKEEPER_CONNECT",
				ConnectAddress: "zookeeper:2181",
			},
		},
		{
			Key: "springboot", Label: "App Java Spring Boot", Image: "openjdk:17", Kind: KindApplication,
			Ports: []string{"8080:8080"},
			Build: &BuildTemplate{
				BaseImage: "openjdk:17",
				WorkDir:   "/app",
				Steps: []BuildStep{
					{Op: "COPY", Args: ". ."},
					{Op: "RUN", Args: "./mvnw -q package -DskipTests"},
				},
				Expose:     8080,
				Entrypoint: []string{"java", "-jar", "target/app.jar"},
			},
		},
		{
			Key: "flask", Label: "App Python Flask", Image: "python:3.11", Kind: KindApplication,
			Ports: []string{"5000:5000"},
			Build: pythonApp("python:3.11", 5000, "flask", "run", "--host=0.0.0.0", "--port=5000"),
		},
		{
			Key: "django", Label: "App Python Django", Image: "python:3.11", Kind: KindApplication,
			Ports: []string{"8000:8000"},
			Build: pythonApp("python:3.11", 8000, "python", "manage.py", "runserver", "0.0.0.0:8000"),
		},
		{
			Key: "laravel", Label: "App PHP Laravel", Image: "php:8.2-apache", Kind: KindApplication,
			Ports: []string{"80:80"},
			Build: &BuildTemplate{
				BaseImage: "php:8.2-apache",
				WorkDir:   "/var/www/html",
				Steps: []BuildStep{
					{Op: "RUN", Args: "docker-php-ext-install pdo pdo_mysql"},
					{Op: "COPY", Args: ". ."},
					{Op: "RUN", Args: "chown -R www-data:www-data storage bootstrap/cache"},
				},
				Expose: 80,
				Cmd:    []string{"apache2-foreground"},
			},
		},
		{
			Key: "reactjs", Label: "ReactJS", Image: "node:20", Kind: KindApplication,
			Ports: []string{"3000:3000"},
			Build: nodeApp("node:20", 3000, "npm", "start"),
		},
		{
			Key: "angular", Label: "Angular", Image: "node:20", Kind: KindApplication,
			Ports: []string{"4200:4200"},
			Build: nodeApp("node:20", 4200, "npx", "ng", "serve", "--host", "0.0.0.0"),
		},
		{
			Key: "vuejs", Label: "VueJS", Image: "node:20", Kind: KindApplication,
			Ports: []string{"5173:5173"},
			Build: nodeApp("node:20", 5173, "npm", "run", "dev", "--", "--host", "0.0.0.0"),
		},
		{
			Key: "dotnet", Label: ".NET", Image: "mcr.microsoft.com/dotnet/aspnet:8.0", Kind: KindApplication,
			Ports: []string{"80:80"},
			Build: &BuildTemplate{
				BaseImage: "mcr.microsoft.com/dotnet/sdk:8.0",
				WorkDir:   "/app",
				Steps: []BuildStep{
					{Op: "COPY", Args: ". ."},
					{Op: "RUN", Args: "dotnet publish -c Release -o out"},
				},
				Expose:     80,
				Entrypoint: []string{"dotnet", "out/app.dll"},
			},
		},
	}
}

// Default returns a new catalog built from the built-in service table.
func Default() *Catalog {
	c, err := New(defaultServices(), nil, nil)
	if err != nil {
		panic("catalog: built-in table is invalid: " + err.Error())
	}
	return c
}
