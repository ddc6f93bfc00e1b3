package render

const cityVertexShader = `
#version 330
in vec3 vertexPosition;
in vec3 vertexNormal;
in vec4 vertexColor;

uniform mat4 mvp;

out vec4 fragColor;
out vec3 fragNormal;
out float fragHeight;

void main() {
    fragColor = vertexColor;
    fragNormal = vertexNormal;
    fragHeight = vertexPosition.y;
    gl_Position = mvp * vec4(vertexPosition, 1.0);
}
`

const cityFragmentShader = `
#version 330
in vec4 fragColor;
in vec3 fragNormal;
in float fragHeight;

uniform vec4 colDiffuse;
uniform vec3 lightDir;
uniform float ambient;

out vec4 finalColor;

void main() {
    vec3 n = normalize(fragNormal);
    float diffuse = max(dot(n, -normalize(lightDir)), 0.0);

    // Leve escurecimento perto do chão para separar os prédios do terreno
    float ao = clamp(0.75 + fragHeight * 0.01, 0.75, 1.0);

    vec4 base = fragColor * colDiffuse;
    finalColor = vec4(base.rgb * (ambient + (1.0 - ambient) * diffuse) * ao, base.a);
}
`
